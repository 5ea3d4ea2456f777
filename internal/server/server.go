// Package server is the HTTP boundary around the routing pipeline. It
// decodes inbound requests, runs them through the pipeline, and returns the
// decision plus the normalized request for the surrounding proxy to act on.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jerryzhao173985/ccr/internal/config"
	"github.com/jerryzhao173985/ccr/internal/pipeline"
)

// maxBodyBytes limits the size of incoming request bodies.
const maxBodyBytes = 10 * 1024 * 1024 // 10 MB

// Server is the main HTTP server.
type Server struct {
	Config     *config.ServerConfig
	RouterCfg  *config.RouterConfig
	Pipeline   *pipeline.Pipeline
	httpServer *http.Server
}

// New creates a new server with all routes registered.
func New(cfg *config.ServerConfig, routerCfg *config.RouterConfig) *Server {
	s := &Server{
		Config:    cfg,
		RouterCfg: routerCfg,
		Pipeline:  pipeline.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/route", s.handleRoute)
	mux.HandleFunc("OPTIONS /", s.handleOptions)

	handler := corsMiddleware(authMiddleware(cfg, requestLogMiddleware(cfg, mux)))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
