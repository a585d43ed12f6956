package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/mcdev12/barbell/go/internal/config"
)

func setupServer(cfg *config.Config, services *Services) *http.Server {
	r := chi.NewRouter()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})
	r.Use(c.Handler)

	services.Gateway.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/health", services.Health)

	// No WriteTimeout: it would also cut hijacked WebSocket connections.
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
