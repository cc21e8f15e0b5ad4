// Package api exposes the processing pipeline and the server-synced queue
// over a local HTTP API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/cache"
	"github.com/ombresaco/shortsmaker/internal/queue"
	"github.com/ombresaco/shortsmaker/internal/store"
)

// BatchProcessor kicks off one queue batch.
type BatchProcessor interface {
	ProcessAll(ctx context.Context) error
}

// AuthChecker reports upload credential state.
type AuthChecker interface {
	Authenticated() bool
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// ServerConfig wires the server's collaborators. Segments handles one-off
// processing requests; Batch drives full queue runs.
type ServerConfig struct {
	Port      int
	Logger    zerolog.Logger
	Queue     *queue.Manager
	Segments  queue.SegmentProcessor
	Batch     BatchProcessor
	Store     *store.Store
	Cache     *cache.Store
	Auth      AuthChecker
	StartTime time.Time
	Version   string
}

// NewServer builds the HTTP server. Binds loopback only; the API carries
// local file paths and is not meant to face a network.
func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger.With().Str("component", "api").Logger(),
	}
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
