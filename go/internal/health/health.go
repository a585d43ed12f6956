// Package health reports whether the server and its collaborators are usable.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/barbell/go/internal/fop"
)

type Status struct {
	Healthy           bool     `json:"healthy"`
	Platforms         []string `json:"platforms"`
	Subscribers       int      `json:"subscribers"`
	DatabaseConnected *bool    `json:"database_connected,omitempty"`
	NATSConnected     *bool    `json:"nats_connected,omitempty"`
	Errors            []string `json:"errors"`
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connection is satisfied by *nats.Conn and the relay publisher.
type Connection interface {
	IsConnected() bool
}

type Option func(*Checker)

// WithDatabase adds a database ping to the check.
func WithDatabase(db Pinger) Option {
	return func(c *Checker) { c.db = db }
}

// WithBus adds the message bus connection to the check.
func WithBus(bus Connection) Option {
	return func(c *Checker) { c.bus = bus }
}

// WithPlatforms lists platforms that must be running.
func WithPlatforms(names ...string) Option {
	return func(c *Checker) { c.expected = names }
}

type Checker struct {
	registry *fop.Registry
	db       Pinger
	bus      Connection
	expected []string
	timeout  time.Duration
}

func NewChecker(registry *fop.Registry, opts ...Option) *Checker {
	c := &Checker{registry: registry, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy:   true,
		Platforms: c.registry.List(),
		Errors:    []string{},
	}

	for _, name := range status.Platforms {
		if f, ok := c.registry.Lookup(name); ok {
			status.Subscribers += f.Subscribers()
		}
	}
	for _, name := range c.expected {
		if _, ok := c.registry.Lookup(name); !ok {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("platform %s not running", name))
		}
	}

	if c.db != nil {
		connected := true
		if err := c.db.Ping(ctx); err != nil {
			connected = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		}
		status.DatabaseConnected = &connected
	}

	if c.bus != nil {
		connected := c.bus.IsConnected()
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
		status.NATSConnected = &connected
	}
	return status
}

func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	status := c.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}
