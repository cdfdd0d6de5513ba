// Fanscout - Supporter-Driven Music Discovery for Bandcamp
// Copyright 2026 M. Veldt (fanscout)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanscout/fanscout

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fanscout/fanscout/internal/cache"
	"github.com/fanscout/fanscout/internal/config"
	"github.com/fanscout/fanscout/internal/logging"
	"github.com/fanscout/fanscout/internal/recommend"
)

// Engine is the recommendation surface the server exposes. Satisfied
// by *recommend.Engine; a fake implementation serves in tests.
type Engine interface {
	GetRecommendations(ctx context.Context, seedURL string, opts recommend.OverlapOptions, progress recommend.ProgressReporter) ([]recommend.Recommendation, error)
	GetTagSimilarRecommendations(ctx context.Context, seedURL string, opts recommend.SimilarOptions, progress recommend.ProgressReporter) ([]recommend.SimilarItem, error)
	GetRandomItems(ctx context.Context, seedURL string, opts recommend.RandomOptions, progress recommend.ProgressReporter) ([]recommend.RandomItem, error)
}

// Server serves the HTTP API.
type Server struct {
	cfg     config.ServerConfig
	engine  Engine
	cache   *cache.Cache[any]
	logger  zerolog.Logger
	handler http.Handler
	httpSrv *http.Server
	cacheOn bool
}

// NewServer creates the API server. The response cache is shared by
// all ranked endpoints; random results are never cached since they are
// meant to differ between calls.
func NewServer(cfg config.ServerConfig, cacheCfg config.CacheConfig, engine Engine) *Server {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		logger:  logging.With().Str("component", "api").Logger(),
		cacheOn: cacheCfg.Enabled,
	}
	if s.cacheOn {
		s.cache = cache.New[any](cacheCfg.Capacity, cacheCfg.TTL)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.accessLog)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))
		}
		r.Use(recordMetrics)

		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/similar", s.handleSimilar)
		r.Get("/random", s.handleRandom)
	})

	return r
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.cfg.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("api server listening")
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.logger.Info().Msg("api server shutting down")
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, map[string]string{"status": "ok"}, false)
}
