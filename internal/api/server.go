// Package api exposes the read endpoints, the inbound webhook and the live
// websocket feed over one HTTP server.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"optiflow/internal/metrics"
	"optiflow/pkg/errors"
	"optiflow/pkg/logger"
)

// Server wraps the HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures the HTTP server with all routes
func NewServer(addr string, handlers *Handlers, hub *Hub) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/option_chain", handlers.HandleOptionChain)
		r.Get("/oi_history", handlers.HandleOIHistory)
		r.Get("/signal_history", handlers.HandleSignalHistory)
		r.Get("/alerts", handlers.HandleAlerts)
	})
	r.Post("/webhook", handlers.HandleWebhook)
	r.Get("/ws", hub.HandleWS)
	r.Get("/healthz", handlers.HandleHealth)
	r.Handle("/metrics", metrics.Handler())

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        logger.Get().With("component", "api_server"),
	}
}

// Start begins listening for HTTP requests and blocks until the server
// stops or fails
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}
	return nil
}
