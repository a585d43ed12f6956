package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/barbell/go/internal/config"
	"github.com/mcdev12/barbell/go/internal/fop"
	"github.com/mcdev12/barbell/go/internal/fop/gateway"
	"github.com/mcdev12/barbell/go/internal/fop/relay"
	"github.com/mcdev12/barbell/go/internal/groups"
	"github.com/mcdev12/barbell/go/internal/health"
)

// groupSource is what both group backends provide.
type groupSource interface {
	fop.GroupSource
	gateway.GroupLister
}

type Services struct {
	Groups   groupSource
	Registry *fop.Registry
	Relay    *relay.Relay
	Gateway  *gateway.Service
	Health   *health.Checker

	pool *pgxpool.Pool
}

func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	// Wire up dependency chain
	// Group source → Registry (one field of play per platform) → Relay, Gateway
	s := &Services{}

	src, err := s.setupGroups(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.Groups = src

	s.Registry = fop.NewRegistry(cfg.FOP, fop.WithGroupSource(src))
	s.Registry.Restrict(cfg.Platforms...)
	checks := []health.Option{health.WithPlatforms(cfg.Platforms...)}
	if s.pool != nil {
		checks = append(checks, health.WithDatabase(s.pool))
	}

	if cfg.NATS.URL != "" {
		js := relay.DefaultJetStreamConfig()
		js.URL = cfg.NATS.URL
		js.StreamName = cfg.NATS.Stream
		js.SubjectPrefix = cfg.NATS.SubjectPrefix
		js.MaxReconnects = cfg.NATS.MaxReconnects
		js.ReconnectWait = cfg.NATS.ReconnectWait

		pub, err := relay.NewJetStreamPublisher(ctx, js)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to start relay: %w", err)
		}
		s.Relay = relay.New(pub, 5*time.Second)
		s.Relay.Attach(s.Registry)
		checks = append(checks, health.WithBus(pub))
	} else {
		log.Info().Msg("NATS_URL not set, relay disabled")
	}

	gwConfig := gateway.DefaultConfig()
	gwConfig.ConnectionConfig.AllowedOrigins = cfg.AllowedOrigins
	s.Gateway = gateway.NewService(gwConfig, s.Registry, src)
	s.Health = health.NewChecker(s.Registry, checks...)

	for _, name := range cfg.Platforms {
		if _, err := s.Registry.Get(name); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to start platform %q: %w", name, err)
		}
		log.Info().Str("platform", name).Msg("platform started")
	}
	return s, nil
}

func (s *Services) setupGroups(ctx context.Context, cfg *config.Config) (groupSource, error) {
	switch {
	case cfg.DB.Enabled():
		pool, err := groups.Connect(ctx, cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.pool = pool
		log.Info().
			Str("host", cfg.DB.Host).
			Str("database", cfg.DB.Database).
			Msg("loading groups from database")
		return groups.NewPostgresSource(pool), nil

	case cfg.GroupsFile != "":
		src, err := groups.LoadFile(cfg.GroupsFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.GroupsFile).Msg("loading groups from file")
		return src, nil

	default:
		log.Warn().Msg("no DB_HOST or GROUPS_FILE configured, no groups available")
		return groups.NewMemorySource(), nil
	}
}

// Close stops the relay, then every platform, then the database pool.
func (s *Services) Close() {
	if s.Relay != nil {
		if err := s.Relay.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close relay")
		}
	}
	if s.Registry != nil {
		_ = s.Registry.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
