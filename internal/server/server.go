// Package server is the thin HTTP front-end over the media DAG executor:
// job submission, status, results, and search, per the media API contract.
// It exists to give the orchestrator a caller; the DAG executor remains the
// part of this module doing real work.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/docling-go/docling/internal/config"
	"github.com/docling-go/docling/internal/handlers"
	"github.com/docling-go/docling/internal/media/orchestrator"
)

// Server manages the HTTP listener and routes for the media API.
type Server struct {
	cfg    *config.Config
	logger arbor.ILogger
	media  *handlers.Media

	router       *http.ServeMux
	server       *http.Server
	shutdownChan chan struct{}
}

// New builds a Server wired to orch, ready to Start.
func New(cfg *config.Config, logger arbor.ILogger, orch *orchestrator.Orchestrator) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		media:  handlers.New(orch, logger),
	}

	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withConditionalMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// SetShutdownChannel sets the channel signaled when HTTP shutdown is
// requested.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info().Str("address", addr).Msg("media API server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down media API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("media API server stopped")
	return nil
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ShutdownHandler handles HTTP-triggered shutdown requests. setupRoutes
// registers it unconditionally; no mode or config flag gates it.
func (s *Server) ShutdownHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.logger.Info().Msg("shutdown requested via HTTP endpoint")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
