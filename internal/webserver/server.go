// SPDX-License-Identifier: MPL-2.0

package webserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// StateCreated indicates the server has been created but not started.
	StateCreated ServerState = iota
	// StateStarting indicates the server is in the process of starting.
	StateStarting
	// StateRunning indicates the server is running and accepting connections.
	StateRunning
	// StateStopping indicates the server is shutting down.
	StateStopping
	// StateStopped indicates the server has stopped (terminal state).
	StateStopped
	// StateFailed indicates the server failed to start or encountered a fatal error (terminal state).
	StateFailed
)

type (
	// ServerState represents the lifecycle state of the server.
	ServerState int32

	// Server serves the web UI and JSON API. A Server instance is
	// single-use: once stopped or failed, create a new instance.
	Server struct {
		// Immutable configuration (set at creation, never modified)
		cfg Config

		// State management (atomic for lock-free reads)
		state atomic.Int32

		// Initialized during Start() - protected by stateMu for writes
		stateMu    sync.Mutex
		httpServer *http.Server
		listener   net.Listener
		addr       string // Actual bound address (including resolved port)

		// Lifecycle management
		ctx       context.Context
		cancel    context.CancelFunc
		wg        sync.WaitGroup
		startedCh chan struct{} // Closed when server is ready to accept connections
		errCh     chan error    // Receives fatal errors from background goroutines
		lastErr   error         // Stores the last error for State() == StateFailed

		logger *log.Logger
	}

	// Config holds immutable configuration for the web server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1)
		Host string
		// Port is the port to listen on (0 = auto-select)
		Port int
		// ShutdownTimeout is the timeout for graceful shutdown (default: 10s)
		ShutdownTimeout time.Duration
		// StartupTimeout is the max time to wait for server to be ready (default: 5s)
		StartupTimeout time.Duration
	}
)

// String returns a human-readable representation of the server state.
func (s ServerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            0,
		ShutdownTimeout: 10 * time.Second,
		StartupTimeout:  5 * time.Second,
	}
}

// New creates a new web server serving the given handler set.
// The server is not started; call Start() to begin accepting connections.
func New(cfg Config, h *Handler) *Server {
	// Apply defaults
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 5 * time.Second
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "webserver",
	})
	h.logger = logger

	s := &Server{
		cfg:       cfg,
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1), // Buffered so goroutines don't block
		logger:    logger,
	}
	s.state.Store(int32(StateCreated))

	s.httpServer = &http.Server{
		Handler: h.Routes(),
		// Run responses can take a while; the write timeout must cover
		// the longest allowed script run.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the web server and blocks until either:
//   - The server is ready to accept connections (returns nil)
//   - The server fails to start (returns error)
//   - The context is cancelled (returns context error)
//   - The startup timeout is exceeded (returns error)
//
// After Start() returns nil, use Err() to monitor for runtime errors.
func (s *Server) Start(ctx context.Context) error {
	// Check for already-cancelled context BEFORE any setup.
	// This prevents a race condition where the serve goroutine could transition
	// to StateRunning before the cancelled context is detected in the select.
	select {
	case <-ctx.Done():
		s.transitionToFailed(fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return s.lastErr
	default:
	}

	// Transition: Created -> Starting
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		currentState := ServerState(s.state.Load())
		return fmt.Errorf("cannot start server in state %s", currentState)
	}

	// Create internal context for lifecycle management
	s.ctx, s.cancel = context.WithCancel(context.Background())

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.transitionToFailed(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.lastErr
	}

	s.stateMu.Lock()
	s.listener = listener
	s.addr = listener.Addr().String()
	s.stateMu.Unlock()

	s.wg.Add(1)
	go s.serve()

	select {
	case <-s.startedCh:
		s.logger.Info("web server started", "url", s.URL())
		return nil

	case err := <-s.errCh:
		s.transitionToFailed(err)
		return err

	case <-startupCtx.Done():
		s.cancel() // Stop any background work
		s.transitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.lastErr
	}
}

// Stop gracefully stops the web server.
// It blocks until in-flight requests finish or the shutdown timeout is reached.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Server) Stop() error {
	for {
		currentState := ServerState(s.state.Load())
		switch currentState {
		case StateStopped, StateFailed:
			return nil // Already stopped
		case StateCreated:
			if s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return nil // Never started
			}
			continue // State changed, retry
		case StateStopping:
			// Wait for ongoing stop to complete
			s.wg.Wait()
			return nil
		case StateStarting, StateRunning:
			if !s.state.CompareAndSwap(int32(currentState), int32(StateStopping)) {
				continue // State changed, retry
			}
			return s.doStop()
		default:
			return fmt.Errorf("unknown server state: %d", currentState)
		}
	}
}

// Err returns a channel that receives fatal server errors.
// Use this to monitor for unexpected failures after Start() returns.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// State returns the current server state.
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

// IsRunning returns whether the server is currently running and accepting connections.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Address returns the server's bound address (host:port).
// Blocks until the server has started or failed.
// Returns empty string if server never started or failed.
func (s *Server) Address() string {
	if s.ctx == nil {
		return ""
	}
	select {
	case <-s.startedCh:
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		return s.addr
	case <-s.ctx.Done():
		return ""
	}
}

// URL returns the full server URL (e.g., "http://127.0.0.1:8773").
func (s *Server) URL() string {
	addr := s.Address()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

// Wait blocks until the server stops (either gracefully or due to error).
// Returns the error if the server failed, nil otherwise.
func (s *Server) Wait() error {
	s.wg.Wait()

	if s.State() == StateFailed {
		return s.lastErr
	}
	return nil
}

// serve runs the HTTP server and handles errors.
func (s *Server) serve() {
	defer s.wg.Done()

	// Transition: Starting -> Running (signals readiness)
	if s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(s.startedCh)
	}

	s.stateMu.Lock()
	srv := s.httpServer
	listener := s.listener
	s.stateMu.Unlock()

	if srv == nil || listener == nil {
		return
	}

	err := srv.Serve(listener)
	if err != nil {
		// Ignore expected shutdown errors
		if errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			return
		}

		select {
		case s.errCh <- fmt.Errorf("serve error: %w", err):
		default:
			// Error channel full, log instead
			s.logger.Error("web server error (channel full)", "error", err)
		}
	}
}

// doStop performs the actual shutdown logic.
func (s *Server) doStop() error {
	if s.cancel != nil {
		s.cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	s.stateMu.Lock()
	if s.httpServer != nil {
		shutdownErr = s.httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, net.ErrClosed) {
			s.logger.Error("shutdown error", "error", shutdownErr)
		} else {
			shutdownErr = nil
		}
	}
	if s.listener != nil {
		_ = s.listener.Close() // Best-effort cleanup during shutdown
	}
	s.stateMu.Unlock()

	s.wg.Wait()
	s.state.Store(int32(StateStopped))
	close(s.errCh)

	s.logger.Info("web server stopped")
	return shutdownErr
}

// transitionToFailed records a fatal error and moves to StateFailed.
func (s *Server) transitionToFailed(err error) {
	s.lastErr = err
	s.state.Store(int32(StateFailed))
	s.logger.Error("web server failed", "error", err)
}
