package fop

import (
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry owns one FieldOfPlay per platform name, created on first use.
type Registry struct {
	cfg  Config
	opts []Option

	mu       sync.Mutex
	fops     map[string]*FieldOfPlay
	allowed  map[string]bool
	onCreate []func(*FieldOfPlay)
	closed   bool
}

// NewRegistry creates an empty registry. cfg and opts apply to every platform.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	return &Registry{
		cfg:  cfg,
		opts: opts,
		fops: make(map[string]*FieldOfPlay),
	}
}

// OnCreate registers fn to run for every platform, existing ones included.
func (r *Registry) OnCreate(fn func(*FieldOfPlay)) {
	r.mu.Lock()
	r.onCreate = append(r.onCreate, fn)
	existing := make([]*FieldOfPlay, 0, len(r.fops))
	for _, f := range r.fops {
		existing = append(existing, f)
	}
	r.mu.Unlock()

	for _, f := range existing {
		fn(f)
	}
}

// Restrict limits Get to the named platforms. With no names any valid name
// starts a field of play.
func (r *Registry) Restrict(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(names) == 0 {
		r.allowed = nil
		return
	}
	r.allowed = make(map[string]bool, len(names))
	for _, name := range names {
		r.allowed[strings.TrimSpace(name)] = true
	}
}

// Get returns the platform's field of play, starting it if needed.
func (r *Registry) Get(name string) (*FieldOfPlay, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, ".*> ") {
		return nil, ErrInvalidPlatform
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if f, ok := r.fops[name]; ok {
		r.mu.Unlock()
		return f, nil
	}
	if r.allowed != nil && !r.allowed[name] {
		r.mu.Unlock()
		return nil, ErrUnknownPlatform
	}
	f := New(name, r.cfg, r.opts...)
	r.fops[name] = f
	hooks := slices.Clone(r.onCreate)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(f)
	}
	return f, nil
}

// Lookup returns an already running platform.
func (r *Registry) Lookup(name string) (*FieldOfPlay, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.fops[name]
	return f, ok
}

// List returns the platform names in lexical order.
func (r *Registry) List() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.fops))
	for name := range r.fops {
		names = append(names, name)
	}
	r.mu.Unlock()
	slices.Sort(names)
	return names
}

// Close stops every platform. Get fails afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	fops := r.fops
	r.fops = make(map[string]*FieldOfPlay)
	r.mu.Unlock()

	for name, f := range fops {
		if err := f.Close(); err != nil {
			log.Error().Err(err).Str("platform", name).Msg("failed to close field of play")
		}
	}
	return nil
}
