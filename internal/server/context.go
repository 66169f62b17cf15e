package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/inboxquote/internal/catalog"
	"github.com/teemow/inboxquote/internal/clock"
	"github.com/teemow/inboxquote/internal/instrumentation"
	"github.com/teemow/inboxquote/internal/quote"
)

// ServerContext holds the shared state for the MCP server: the quote
// engine, the clock and the optional instrumentation.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	engine      *quote.Engine
	clock       *clock.Clock
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	sessions    *SessionTracker
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, engine *quote.Engine, clk *clock.Clock) (*ServerContext, error) {
	if engine == nil {
		return nil, fmt.Errorf("quote engine is required")
	}
	if clk == nil {
		return nil, fmt.Errorf("clock is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		engine:   engine,
		clock:    clk,
		sessions: NewSessionTracker(),
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Engine returns the quote engine.
func (sc *ServerContext) Engine() *quote.Engine {
	return sc.engine
}

// Catalog returns the catalog the engine prices against.
func (sc *ServerContext) Catalog() *catalog.Catalog {
	return sc.engine.Catalog()
}

// Clock returns the clock used by the time tools.
func (sc *ServerContext) Clock() *clock.Clock {
	return sc.clock
}

// Sessions returns the MCP session tracker.
func (sc *ServerContext) Sessions() *SessionTracker {
	return sc.sessions
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
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
