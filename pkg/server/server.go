// Package server implements the raw-socket HTTP/1.1 file server: the
// TCP accept loop, the per-connection request state machine, and
// response synthesis.
//
// The server wires together the injected shared tables (rate-limit
// windows, per-path hit counts) and the path resolver. Dispatch is
// either sequential (one connection served start-to-finish before the
// next accept) or concurrent (one goroutine per accepted connection);
// the per-connection state machine is identical in both modes.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MadalinaDev/PR-labs/internal/logger"
	"github.com/MadalinaDev/PR-labs/pkg/contenttype"
	"github.com/MadalinaDev/PR-labs/pkg/counter"
	"github.com/MadalinaDev/PR-labs/pkg/metrics"
	"github.com/MadalinaDev/PR-labs/pkg/ratelimit"
	"github.com/MadalinaDev/PR-labs/pkg/webroot"
)

// DispatchMode selects how accepted connections are scheduled.
type DispatchMode string

const (
	// ModeSequential serves each connection inline in the accept loop.
	// No concurrency, no shared-state races possible.
	ModeSequential DispatchMode = "sequential"

	// ModeConcurrent serves each connection on its own goroutine.
	ModeConcurrent DispatchMode = "concurrent"
)

// Config holds the file server's runtime configuration.
type Config struct {
	// BindAddress is the IP address to bind to.
	// Empty string or "0.0.0.0" binds to all interfaces.
	BindAddress string

	// Port is the TCP port to listen on.
	Port int

	// Mode selects sequential or concurrent dispatch.
	Mode DispatchMode

	// MaxConnections limits concurrent client connections.
	// 0 means unlimited. Ignored in sequential mode.
	MaxConnections int

	// RequestDelay is an artificial pause applied to each admitted
	// request before the counter update, simulating I/O latency so the
	// concurrency behavior of the variants is observable.
	RequestDelay time.Duration

	// ReadTimeout bounds reading one request off a connection.
	// 0 disables the deadline.
	ReadTimeout time.Duration

	// ShutdownTimeout is the maximum duration to wait for active
	// connections to complete during graceful shutdown.
	ShutdownTimeout time.Duration
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 8000
	}
	if c.Mode == "" {
		c.Mode = ModeConcurrent
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// validate checks that the configuration is usable.
func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.Mode != ModeSequential && c.Mode != ModeConcurrent {
		return fmt.Errorf("invalid dispatch mode %q", c.Mode)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid MaxConnections %d: must be >= 0", c.MaxConnections)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

// Server is the raw-socket HTTP file server.
//
// The shared tables (limiter windows, hit counts) are injected at
// construction and passed by shared reference; their locking discipline
// lives inside the respective packages. Server itself only adds
// connection lifecycle management around them.
//
// Thread safety:
// All exported methods are safe for concurrent use. Shutdown uses
// sync.Once so Stop is idempotent.
type Server struct {
	config Config

	// root confines every request path to the served tree.
	root *webroot.Root

	// limiter admits or denies requests per client IP. nil disables
	// rate limiting (the plain sequential variant).
	limiter *ratelimit.SlidingWindow

	// hits is the shared per-path request counter; its policy (locked
	// or racy) is chosen by the caller.
	hits counter.Counter

	// builder renders files, listings, and error pages.
	builder *ResponseBuilder

	// metrics is an optional recorder. nil disables collection.
	metrics metrics.HTTPMetrics

	// listener is closed during shutdown to stop accepting.
	listener   net.Listener
	listenerMu sync.RWMutex

	// activeConns tracks connections for graceful shutdown.
	activeConns sync.WaitGroup

	shutdownOnce sync.Once

	// ShutdownSignal is closed when shutdown is initiated.
	ShutdownSignal chan struct{}

	// ConnCount is the current number of active connections.
	ConnCount atomic.Int32

	// connSemaphore limits concurrent connections when MaxConnections > 0.
	connSemaphore chan struct{}

	// shutdownCtx is cancelled during shutdown so in-flight request
	// delays abort promptly.
	shutdownCtx    context.Context
	cancelRequests context.CancelFunc

	// activeConnections maps remote address strings to net.Conn for
	// forced closure after the shutdown timeout.
	activeConnections sync.Map

	// ListenerReady is closed when the listener is accepting. Tests
	// synchronize on it before dialing.
	ListenerReady chan struct{}
}

// New creates a file server over the given shared collaborators.
//
// limiter may be nil to disable rate limiting; metrics may be nil to
// disable collection. Panics on invalid configuration (programmer
// error); fatal serving conditions surface from Serve.
func New(
	config Config,
	root *webroot.Root,
	limiter *ratelimit.SlidingWindow,
	hits counter.Counter,
	classifier *contenttype.Classifier,
	m metrics.HTTPMetrics,
) *Server {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid server config: %v", err))
	}

	var connSemaphore chan struct{}
	if config.Mode == ModeConcurrent && config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
	}

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	return &Server{
		config:         config,
		root:           root,
		limiter:        limiter,
		hits:           hits,
		builder:        NewResponseBuilder(classifier, hits),
		metrics:        m,
		ShutdownSignal: make(chan struct{}),
		connSemaphore:  connSemaphore,
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancelRequests,
		ListenerReady:  make(chan struct{}),
	}
}

// Serve starts accepting connections and blocks until the context is
// cancelled or an unrecoverable listener error occurs.
//
// Returns nil on graceful shutdown, an error when the listener cannot
// be created or when shutdown was not graceful.
func (s *Server) Serve(ctx context.Context) error {
	listenAddr := fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.Port)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to create listener on %s: %w", listenAddr, err)
	}

	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()
	close(s.ListenerReady)

	logger.Info("HTTP server listening",
		"address", listener.Addr().String(),
		"root", s.root.Path(),
		"mode", string(s.config.Mode))

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", logger.KeyError, ctx.Err())
		s.initiateShutdown()
	}()

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.ShutdownSignal:
				return s.gracefulShutdown()
			}
		}

		tcpConn, err := s.listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			select {
			case <-s.ShutdownSignal:
				// Expected: the listener was closed by shutdown.
				return s.gracefulShutdown()
			default:
				logger.Debug("Error accepting connection", logger.KeyError, err)
				continue
			}
		}

		if tcp, ok := tcpConn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("Failed to set TCP_NODELAY", logger.KeyError, err)
			}
		}

		s.dispatch(tcpConn)
	}
}

// dispatch runs the connection state machine inline (sequential mode)
// or on a new goroutine (concurrent mode), with identical lifecycle
// tracking in both cases.
func (s *Server) dispatch(tcpConn net.Conn) {
	s.activeConns.Add(1)
	active := s.ConnCount.Add(1)

	connAddr := tcpConn.RemoteAddr().String()
	s.activeConnections.Store(connAddr, tcpConn)

	if s.metrics != nil {
		s.metrics.RecordConnectionAccepted()
		s.metrics.SetActiveConnections(active)
	}
	logger.Debug("Connection accepted", "address", connAddr, "active", active)

	conn := newConnection(s, tcpConn)

	run := func() {
		defer func() {
			s.activeConnections.Delete(connAddr)
			s.activeConns.Done()
			remaining := s.ConnCount.Add(-1)
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			if s.metrics != nil {
				s.metrics.RecordConnectionClosed()
				s.metrics.SetActiveConnections(remaining)
			}
			logger.Debug("Connection closed", "address", connAddr, "active", remaining)
		}()

		conn.serve(s.shutdownCtx)
	}

	if s.config.Mode == ModeSequential {
		run()
		return
	}
	go run()
}

// initiateShutdown signals the accept loop to stop, closes the
// listener, interrupts blocking reads, and cancels in-flight request
// contexts. Safe to call multiple times.
func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.ShutdownSignal)

		s.listenerMu.Lock()
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				logger.Debug("Error closing listener", logger.KeyError, err)
			}
		}
		s.listenerMu.Unlock()

		// Unblock pending reads so connection goroutines can exit.
		deadline := time.Now().Add(100 * time.Millisecond)
		s.activeConnections.Range(func(key, value any) bool {
			if conn, ok := value.(net.Conn); ok {
				if err := conn.SetReadDeadline(deadline); err != nil {
					logger.Debug("Error setting shutdown deadline", "address", key, logger.KeyError, err)
				}
			}
			return true
		})

		s.cancelRequests()
	})
}

// gracefulShutdown waits for active connections to complete or
// force-closes them after the configured timeout.
func (s *Server) gracefulShutdown() error {
	active := s.ConnCount.Load()
	logger.Info("Graceful shutdown: waiting for active connections",
		"active", active, "timeout", s.config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Graceful shutdown complete: all connections closed")
		return nil

	case <-time.After(s.config.ShutdownTimeout):
		remaining := s.ConnCount.Load()
		logger.Warn("Shutdown timeout exceeded, forcing closure", "active", remaining)

		s.activeConnections.Range(func(key, value any) bool {
			if conn, ok := value.(net.Conn); ok {
				_ = conn.Close()
			}
			return true
		})
		return fmt.Errorf("shutdown timeout: %d connections force-closed", remaining)
	}
}

// Stop initiates graceful shutdown and waits for active connections up
// to the configured timeout. Safe to call multiple times and
// concurrently with Serve.
func (s *Server) Stop() error {
	s.initiateShutdown()
	return s.gracefulShutdown()
}

// Addr returns the address the server is listening on. Blocks until the
// listener is ready, making it safe for tests that bind port 0.
func (s *Server) Addr() string {
	<-s.ListenerReady

	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ActiveConnections returns the current number of active connections.
func (s *Server) ActiveConnections() int32 {
	return s.ConnCount.Load()
}
