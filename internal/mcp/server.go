// Package mcp exposes browser sessions as MCP tools and resources and owns
// the server lifecycle: initialization, readiness, and the shutdown drain.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
	"github.com/standardbeagle/webdriver-mcp/internal/config"
	"github.com/standardbeagle/webdriver-mcp/internal/session"
)

var (
	// ErrShuttingDown is returned by Start and Initialize once shutdown has begun.
	ErrShuttingDown = errors.New("server is shutting down")
	// ErrNotReady is reported by tools invoked before Start or during shutdown.
	ErrNotReady = errors.New("server is not ready")
)

// State is a point in the server lifecycle.
type State int32

const (
	StateCreated State = iota
	StateInitializing
	StateReady
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting-down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Options carries the collaborators of a Server.
type Options struct {
	// Launcher starts browsers. Required.
	Launcher browser.Launcher
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Server is the MCP browser-automation server.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	mcp      *server.MCPServer
	registry *session.Registry
	launcher browser.Launcher
	allow    []glob.Glob

	startedAt time.Time
	fatal     chan error
	done      chan struct{}

	mu           sync.Mutex
	state        State
	initialized  bool
	shuttingDown bool
	exitCode     int
}

// NewServer builds a server in the initializing state. Tools and resources
// are registered by Initialize.
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if opts.Launcher == nil {
		return nil, errors.New("browser launcher is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	allow, err := compileAllowList(cfg.Navigation.Allow)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger.Named("lifecycle"),
		registry:  session.NewRegistry(logger.Named("registry")),
		launcher:  opts.Launcher,
		allow:     allow,
		startedAt: time.Now(),
		fatal:     make(chan error, 1),
		done:      make(chan struct{}),
		state:     StateCreated,
	}

	s.mcp = server.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)
	s.state = StateInitializing

	return s, nil
}

// Registry returns the session registry.
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialize registers every tool and resource. Calling it again is a no-op.
func (s *Server) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeLocked()
}

func (s *Server) initializeLocked() error {
	if s.shuttingDown {
		return ErrShuttingDown
	}
	if s.initialized {
		s.logger.Debug("server already initialized")
		return nil
	}

	s.registerTools()
	s.registerResources()
	s.initialized = true

	s.logger.Info("server initialized",
		zap.String("name", s.cfg.Server.Name),
		zap.String("version", s.cfg.Server.Version))
	return nil
}

// Start moves the server to ready, initializing it first if needed.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shuttingDown {
		return ErrShuttingDown
	}
	if err := s.initializeLocked(); err != nil {
		return err
	}
	s.state = StateReady
	return nil
}

// IsReady reports whether the server is initialized and not shutting down.
func (s *Server) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized && !s.shuttingDown
}

// Serve runs the stdio transport on in/out until a shutdown trigger fires:
// a value on signals, transport failure, ReportFatal, ctx cancellation, or a
// Stop from elsewhere. It drains every session and returns the exit code.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer, signals <-chan os.Signal) int {
	if err := s.Start(); err != nil {
		s.logger.Error("failed to start server", zap.Error(err))
		return 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var health *http.Server
	if s.cfg.Health.Addr != "" {
		health = s.startHealthServer(s.cfg.Health.Addr)
	}

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Named("stdio")))

	transportErr := make(chan error, 1)
	go func() {
		transportErr <- stdio.Listen(ctx, in, out)
	}()

	s.logger.Info("listening on stdio")

	var (
		trigger string
		cause   error
	)
	select {
	case sig := <-signals:
		trigger = "signal " + sig.String()
	case err := <-transportErr:
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			trigger = "transport closed"
		} else {
			trigger = "transport failure"
			cause = err
		}
	case err := <-s.fatal:
		trigger = "fatal error"
		cause = err
	case <-ctx.Done():
		trigger = "context cancelled"
	case <-s.done:
		trigger = "stopped"
	}

	cancel()
	if health != nil {
		s.stopHealthServer(health)
	}
	code, _ := s.shutdown(trigger, cause)
	return code
}

// Stop drains every session and moves the server to stopped. When another
// trigger already ran the shutdown, Stop waits for it and returns nil
// without draining again.
func (s *Server) Stop(ctx context.Context) error {
	type outcome struct {
		code    int
		drained bool
	}
	result := make(chan outcome, 1)
	go func() {
		code, drained := s.shutdown("stop requested", nil)
		result <- outcome{code, drained}
	}()

	select {
	case res := <-result:
		if res.drained && res.code != 0 {
			return errors.New("shutdown completed with errors")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fail runs the shutdown routine for a fatal error and returns exit code 1.
func (s *Server) Fail(err error) int {
	if err == nil {
		err = errors.New("unknown fatal error")
	}
	s.shutdown("fatal error", err)
	return 1
}

// ReportFatal asks a running Serve to shut down with exit code 1. Only the
// first report is kept.
func (s *Server) ReportFatal(err error) {
	select {
	case s.fatal <- err:
	default:
		s.logger.Debug("fatal error already reported", zap.Error(err))
	}
}

// Done is closed once shutdown has completed.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// shutdown is the single shutdown routine behind every trigger. The first
// caller drains; later callers wait for it and get the same exit code with
// drained false.
func (s *Server) shutdown(trigger string, cause error) (code int, drained bool) {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		s.logger.Debug("shutdown already in progress", zap.String("trigger", trigger))
		<-s.done
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.exitCode, false
	}
	drained = true
	s.shuttingDown = true
	s.state = StateShuttingDown
	s.mu.Unlock()

	if cause != nil {
		code = 1
		s.logger.Error("shutting down after fatal error", zap.String("trigger", trigger), zap.Error(cause))
	} else {
		s.logger.Info("shutting down", zap.String("trigger", trigger))
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during shutdown", zap.Any("panic", r))
			code = 1
		}
		s.registry.ClearDrivers()
		s.registry.ResetCurrentSession()

		s.mu.Lock()
		s.state = StateStopped
		s.exitCode = code
		s.mu.Unlock()
		close(s.done)

		s.logger.Info("server stopped", zap.Int("exit_code", code))
	}()

	opts := session.DrainOptions{
		SessionTimeout: s.cfg.Shutdown.SessionTimeout.Duration,
		Timeout:        s.cfg.Shutdown.Timeout.Duration,
	}
	report := session.Drain(context.Background(), s.registry, opts, s.logger.Named("drain"))
	if report.Total() > 0 {
		s.logger.Info("browser sessions drained",
			zap.Int("closed", len(report.Closed)),
			zap.Int("failed", len(report.Failed)),
			zap.Int("timed_out", len(report.TimedOut)),
			zap.Int("abandoned", len(report.Abandoned)))
	}

	if err := s.launcher.Close(); err != nil {
		s.logger.Warn("failed to close browser launcher", zap.Error(err))
	}
	return code, true
}

// HealthStatus is the readiness summary served by health endpoints.
type HealthStatus struct {
	Status         string  `json:"status"`
	ServerName     string  `json:"serverName"`
	Version        string  `json:"version"`
	Uptime         float64 `json:"uptime"`
	ActiveSessions int     `json:"activeSessions"`
}

// HealthStatus reports healthy while the server is ready.
func (s *Server) HealthStatus() HealthStatus {
	status := "unhealthy"
	if s.IsReady() {
		status = "healthy"
	}
	return HealthStatus{
		Status:         status,
		ServerName:     s.cfg.Server.Name,
		Version:        s.cfg.Server.Version,
		Uptime:         s.Uptime().Seconds(),
		ActiveSessions: s.registry.Len(),
	}
}

// Uptime is measured on the monotonic clock.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startedAt)
}

type MemoryUsage struct {
	Alloc      uint64 `json:"alloc"`
	HeapInuse  uint64 `json:"heapInuse"`
	Sys        uint64 `json:"sys"`
	Goroutines int    `json:"goroutines"`
	Summary    string `json:"summary"`
}

type ServerStats struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	State          string      `json:"state"`
	IsShuttingDown bool        `json:"isShuttingDown"`
	Uptime         float64     `json:"uptime"`
	StartedAt      time.Time   `json:"startedAt"`
	Started        string      `json:"started"`
	MemoryUsage    MemoryUsage `json:"memoryUsage"`
}

type SessionStats struct {
	Total          int      `json:"total"`
	Active         int      `json:"active"`
	SessionIDs     []string `json:"sessionIds"`
	CurrentSession *string  `json:"currentSession"`
}

type Stats struct {
	Server   ServerStats  `json:"server"`
	Sessions SessionStats `json:"sessions"`
}

// Stats returns a snapshot of server and session counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	state, shuttingDown := s.state, s.shuttingDown
	s.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ids := s.registry.IDs()
	var current *string
	if id, ok := s.registry.CurrentSession(); ok {
		current = &id
	}

	return Stats{
		Server: ServerStats{
			Name:           s.cfg.Server.Name,
			Version:        s.cfg.Server.Version,
			State:          state.String(),
			IsShuttingDown: shuttingDown,
			Uptime:         s.Uptime().Seconds(),
			StartedAt:      s.startedAt,
			Started:        humanize.Time(s.startedAt),
			MemoryUsage: MemoryUsage{
				Alloc:      m.Alloc,
				HeapInuse:  m.HeapInuse,
				Sys:        m.Sys,
				Goroutines: runtime.NumGoroutine(),
				Summary:    fmt.Sprintf("%s allocated, %s from OS", humanize.Bytes(m.Alloc), humanize.Bytes(m.Sys)),
			},
		},
		Sessions: SessionStats{
			Total:          len(ids),
			Active:         len(ids),
			SessionIDs:     ids,
			CurrentSession: current,
		},
	}
}
