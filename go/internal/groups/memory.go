// Package groups provides the athlete and group data a field of play runs on.
// Sources are read-only: results recorded on the platform stay in the
// platform's own copy.
package groups

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/barbell/go/internal/models"
)

var ErrNotFound = errors.New("group not found")

// MemorySource serves groups held in memory, typically loaded from a YAML
// fixture.
type MemorySource struct {
	mu     sync.RWMutex
	groups map[string]*models.Group
}

// NewMemorySource creates a source holding copies of gs.
func NewMemorySource(gs ...*models.Group) *MemorySource {
	s := &MemorySource{groups: make(map[string]*models.Group, len(gs))}
	for _, g := range gs {
		s.Put(g)
	}
	return s
}

// Put adds or replaces a group.
func (s *MemorySource) Put(g *models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.Name] = g.Clone()
}

// Group returns a copy of the named group.
func (s *MemorySource) Group(_ context.Context, name string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return g.Clone(), nil
}

// Names lists the groups in lexical order.
func (s *MemorySource) Names(context.Context) ([]string, error) {
	s.mu.RLock()
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names, nil
}

// fixture is the YAML layout of a groups file.
type fixture struct {
	Groups []fixtureGroup `yaml:"groups"`
}

type fixtureGroup struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Platform    string           `yaml:"platform"`
	Athletes    []fixtureAthlete `yaml:"athletes"`
}

type fixtureAthlete struct {
	ID          string  `yaml:"id"`
	FirstName   string  `yaml:"first_name"`
	LastName    string  `yaml:"last_name"`
	Team        string  `yaml:"team"`
	Category    string  `yaml:"category"`
	BodyWeight  float64 `yaml:"body_weight"`
	StartNumber int     `yaml:"start_number"`
	LotNumber   int     `yaml:"lot_number"`
	Snatch      int     `yaml:"snatch"`     // opening declaration
	CleanJerk   int     `yaml:"clean_jerk"` // opening declaration
}

// Parse reads a YAML groups document.
func Parse(r io.Reader) ([]*models.Group, error) {
	var f fixture
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}

	out := make([]*models.Group, 0, len(f.Groups))
	seen := make(map[string]bool)
	for _, fg := range f.Groups {
		if fg.Name == "" {
			return nil, errors.New("group without name")
		}
		if seen[fg.Name] {
			return nil, fmt.Errorf("duplicate group %q", fg.Name)
		}
		seen[fg.Name] = true

		g := &models.Group{Name: fg.Name, Description: fg.Description, Platform: fg.Platform}
		for _, fa := range fg.Athletes {
			if fa.ID == "" {
				return nil, fmt.Errorf("group %q: athlete without id", fg.Name)
			}
			a := &models.Athlete{
				ID:          fa.ID,
				FirstName:   fa.FirstName,
				LastName:    fa.LastName,
				Team:        fa.Team,
				Category:    fa.Category,
				BodyWeight:  fa.BodyWeight,
				StartNumber: fa.StartNumber,
				LotNumber:   fa.LotNumber,
			}
			a.Attempts[0].Declared = fa.Snatch
			a.Attempts[models.AttemptsPerLift].Declared = fa.CleanJerk
			g.Athletes = append(g.Athletes, a)
		}
		out = append(out, g)
	}
	return out, nil
}

// LoadFile builds a MemorySource from a YAML groups file.
func LoadFile(path string) (*MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open groups file: %w", err)
	}
	defer f.Close()

	gs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewMemorySource(gs...), nil
}
