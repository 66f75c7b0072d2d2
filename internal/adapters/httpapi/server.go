package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	"marketplace-escrow-engine/internal/config"

	"github.com/rs/zerolog"
)

// Server wraps the HTTP server exposing the engine's operations
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

type ServerParams struct {
	Config  *config.Config
	Handler *Handler
	Logger  zerolog.Logger
}

// NewServer creates a new HTTP server
func NewServer(params ServerParams) *Server {
	addr := net.JoinHostPort(params.Config.Server.Host, params.Config.Server.Port)

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      params.Handler.Routes(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: params.Logger.With().Str("component", "http_server").Logger(),
	}
}

// Start begins serving requests and blocks until the server stops
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
