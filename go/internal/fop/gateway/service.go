// Package gateway exposes the fields of play to browsers and consoles: a
// WebSocket per client subscribed to one platform, and a small REST surface
// for snapshots and one-shot commands.
package gateway

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/barbell/go/internal/fop"
)

type Config struct {
	ConnectionConfig ConnectionConfig
}

func DefaultConfig() Config {
	return Config{ConnectionConfig: DefaultConnectionConfig()}
}

// GroupLister lists the groups a console may switch to.
type GroupLister interface {
	Names(ctx context.Context) ([]string, error)
}

// Service wires the HTTP handlers to a registry of fields of play.
type Service struct {
	registry    *fop.Registry
	groups      GroupLister
	connections *ConnectionManager
	config      Config
}

// NewService creates the gateway. groups may be nil, in which case
// /api/groups is not served.
func NewService(config Config, registry *fop.Registry, groups GroupLister) *Service {
	return &Service{
		registry:    registry,
		groups:      groups,
		connections: NewConnectionManager(config.ConnectionConfig),
		config:      config,
	}
}

// RegisterRoutes mounts the REST and WebSocket routes on r.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Route("/api/platforms", func(r chi.Router) {
		r.Get("/", s.HandleListPlatforms)
		r.Get("/{platform}/state", s.HandleGetState)
		r.Post("/{platform}/commands", s.HandlePostCommand)
	})
	if s.groups != nil {
		r.Get("/api/groups", s.HandleListGroups)
	}
	r.Get("/ws/platforms/{platform}", s.HandleConnection)
	r.Get("/ws/stats", s.HandleConnectionStats)
	log.Info().Msg("gateway routes registered")
}

// Stats returns the open WebSocket connections.
func (s *Service) Stats() Stats {
	return s.connections.Stats()
}

// Close disconnects every WebSocket client.
func (s *Service) Close() {
	s.connections.Close()
	log.Info().Msg("gateway stopped")
}
