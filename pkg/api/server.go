// Package api implements the control-plane HTTP server that runs beside
// the file server: health, metrics, and counter inspection endpoints.
// It is a plain net/http server on its own port and never serves files.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MadalinaDev/PR-labs/internal/logger"
	"github.com/MadalinaDev/PR-labs/pkg/counter"
)

// Server provides the control-plane HTTP server.
//
// The server supports graceful shutdown with a fixed timeout.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a control-plane server over the shared hit counter.
//
// The server is created in a stopped state. Call Start to begin serving.
// Defaults are applied here so the server works correctly even when
// constructed directly in tests; this is idempotent with the defaults
// applied during config loading.
func NewServer(config Config, hits counter.Counter) *Server {
	config.ApplyDefaults()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      NewRouter(hits),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}
}

// Start starts the control-plane server and blocks until the context is
// cancelled or an error occurs. Cancellation triggers graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Control-plane server listening", "port", s.config.Port)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed.
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Control-plane server shutdown signal received")
		// Use a fresh context for shutdown; the cancelled one would
		// abort it immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("control-plane server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("control-plane shutdown error: %w", err)
			logger.Error("Control-plane shutdown error", logger.KeyError, err)
		} else {
			logger.Info("Control-plane server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is configured to listen on.
func (s *Server) Port() int {
	return s.config.Port
}
