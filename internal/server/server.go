// Package server runs the relay's HTTP listener inside the fx lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/logger"
	"github.com/brizzai/address-relay/internal/server/handler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// defaultShutdownTimeout is the maximum time to wait for server shutdown
	defaultShutdownTimeout = 5 * time.Second
)

// Server owns the HTTP listener.
type Server struct {
	config  *config.Config
	http    *http.Server
	handler *handler.Handler
	addr    net.Addr
}

// NewServer creates the server and registers its start and stop hooks.
func NewServer(lc fx.Lifecycle, cfg *config.Config, h *handler.Handler) *Server {
	srv := &Server{
		config:  cfg,
		handler: h,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           h.CreateHTTPHandler(),
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		},
	}

	lc.Append(fx.Hook{
		OnStart: srv.Start,
		OnStop:  srv.Stop,
	})
	return srv
}

// Start binds the listener and serves in the background. A bind failure
// fails application start.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	s.addr = ln.Addr()

	logger.Info("Starting server",
		zap.String("address", s.addr.String()),
		zap.String("delivery_mode", string(s.config.ResolveMode())),
	)

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight requests for at most server.shutdown_timeout.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	logger.Info("Shutting down server", zap.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Module provides the HTTP server and makes sure it is constructed
var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
)
