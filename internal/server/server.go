// Package server provides the HTTP API for the newsrec engine. It is a
// thin presentation shell: it decodes requests, calls the engine, and
// renders whatever ordered list of articles comes back.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/smartnews/newsrec/internal/config"
	"github.com/smartnews/newsrec/internal/engine"
)

// Server is the HTTP server for the newsrec API. It reads the engine
// through a Holder so hot reloads are picked up between requests.
type Server struct {
	holder *engine.Holder
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(holder *engine.Holder, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		holder: holder,
		config: cfg,
		logger: logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/similar", s.handleSimilar)
	r.Get("/api/v1/recommendations/{userID}", s.handleRecommend)
	r.Get("/api/v1/articles/{id}", s.handleGetArticle)
	r.Get("/api/v1/users", s.handleUsers)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
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
