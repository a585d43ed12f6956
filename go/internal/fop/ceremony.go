package fop

import (
	"fmt"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/models"
)

// Ceremonies overlay a break. At most one runs at a time.

func (s *session) ceremonyStarted(c events.CeremonyStarted) ([]emission, error) {
	if !c.Ceremony.Valid() {
		return nil, fmt.Errorf("%w: unknown ceremony %q", ErrInvalidState, c.Ceremony)
	}
	if s.ceremony == c.Ceremony {
		return nil, errIgnored
	}
	if s.ceremony != "" {
		return nil, fmt.Errorf("%w: %s", ErrCeremonyActive, s.ceremony)
	}

	var out []emission
	if s.state != models.FOPStateBreak {
		s.breakTimer.SetTimeRemaining(0, true)
		s.enterBreak(models.BreakCeremony, models.CountdownIndefinite)
		out = append(out, emit(events.KindBreakStarted, s.breakPayload()))
	}
	s.ceremony = c.Ceremony
	return append(out, emit(events.KindCeremonyStarted, events.CeremonyPayload{
		Ceremony: c.Ceremony,
		Group:    c.Group,
		Category: c.Category,
	})), nil
}

func (s *session) ceremonyDone(c events.CeremonyDone) ([]emission, error) {
	if s.ceremony == "" || s.ceremony != c.Ceremony {
		return nil, errIgnored
	}
	s.ceremony = ""
	return []emission{emit(events.KindCeremonyDone, events.CeremonyPayload{Ceremony: c.Ceremony})}, nil
}
