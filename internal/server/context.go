package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/XueTang422/calendar-mcp/internal/calendar"
	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
	"github.com/XueTang422/calendar-mcp/internal/logging"
)

// ServerContext holds the dependencies shared by the MCP tool handlers.
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cal     calendar.Calendar
	backend string

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithMetrics sets the metrics recorder. A nil recorder disables metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the audit logger for tool invocations.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.auditLogger = al }
}

func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) {
		if l != nil {
			sc.logger = l
		}
	}
}

// NewServerContext creates a new server context around cal. backend names
// the calendar implementation in metrics and logs.
func NewServerContext(ctx context.Context, cal calendar.Calendar, backend string, opts ...Option) (*ServerContext, error) {
	if cal == nil {
		return nil, fmt.Errorf("calendar backend is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		cal:     cal,
		backend: backend,
		logger:  logging.Discard().Logger(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Calendar returns the calendar backend.
func (sc *ServerContext) Calendar() calendar.Calendar {
	return sc.cal
}

// Backend returns the backend name, e.g. "google" or "mock".
func (sc *ServerContext) Backend() string {
	return sc.backend
}

// Metrics returns the metrics recorder, or nil when metrics are disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when auditing is disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetMetrics replaces the metrics recorder.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// SetAuditLogger replaces the audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
