// SPDX-License-Identifier: MIT

// Package api serves the admin and diagnostics HTTP interface: effective
// GDAL environment, tuning profiles, endpoint probes and Sentinel-2 scene
// addressing.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/geofront/cogtune/internal/config"
	"github.com/geofront/cogtune/internal/health"
	"github.com/geofront/cogtune/internal/history"
	"github.com/geofront/cogtune/internal/log"
	"github.com/geofront/cogtune/internal/probe"
	"github.com/geofront/cogtune/internal/sentinel"
)

// Deps are the collaborators the server exposes over HTTP. Reader and
// History may be nil when the corresponding subsystem is disabled.
type Deps struct {
	Config  *config.Manager
	Health  *health.Manager
	Prober  *probe.Prober
	Reader  *sentinel.Reader
	History *history.Store
}

// Server is the admin HTTP server.
type Server struct {
	deps   Deps
	router *chi.Mux
	logger zerolog.Logger
}

// New builds the server with the canonical middleware stack and all routes
// registered.
func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: log.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Middleware order: recoverer outermost, then correlation, headers,
// observability, logging. Rate limiting applies to the /api subtree only
// so health probes are never throttled.
func (s *Server) routes() *chi.Mux {
	cfg := s.deps.Config.Current()

	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(securityHeaders)
	r.Use(httpMetrics)
	if cfg.API.TracingEnabled {
		r.Use(tracing(cfg.LogService))
	}
	r.Use(requestLogger)

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.API.RateLimit > 0 {
			r.Use(rateLimit(cfg.API.RateLimit, cfg.API.RateLimitWindow))
		}

		r.Get("/env", s.handleEnv)
		r.Get("/profiles", s.handleProfiles)
		r.Get("/profiles/{name}", s.handleProfile)
		r.Get("/profiles/{name}/render", s.handleProfileRender)
		r.Post("/probe", s.handleProbe)
		r.Get("/probe/history", s.handleProbeHistory)
		r.Get("/scenes/{sceneID}", s.handleScene)
		r.Get("/scenes/{sceneID}/coverage", s.handleSceneCoverage)
		r.Post("/reload", s.handleReload)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.deps.Config.Current()

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("event", "api.listening").
			Str("addr", cfg.Listen).
			Msg("admin API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().
			Err(err).
			Str("event", "api.shutdown_error").
			Msg("graceful shutdown failed")
		return err
	}
	s.logger.Info().
		Str("event", "api.stopped").
		Msg("admin API stopped")
	return nil
}
