// Package server provides the HTTP API for florafind.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/config"
	"github.com/hyperjump/florafind/internal/metrics"
	"github.com/hyperjump/florafind/internal/search"
	"github.com/hyperjump/florafind/internal/storage"
	"github.com/hyperjump/florafind/pkg/utils"
)

// Server is the HTTP server for the florafind API.
type Server struct {
	engine *search.Engine
	// store is nil when the configured source is read-only.
	store  storage.RecordStore
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil, in which
// case the record write endpoints answer 501.
func NewServer(
	engine *search.Engine,
	store storage.RecordStore,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine: engine,
		store:  store,
		config: cfg,
		logger: utils.OrNop(logger),
	}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/search", s.handleSearch)
		r.Get("/statistics", s.handleStatistics)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)

		r.Post("/records", s.handleCreateRecord)
		r.Get("/records/{id}", s.handleGetRecord)
		r.Delete("/records/{id}", s.handleDeleteRecord)
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
