package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/inboxquote/internal/logging"
)

// QuoteOutcome is the part of a generated quote worth auditing.
type QuoteOutcome struct {
	ID           string
	Lines        int
	UnknownCodes int
}

// ToolInvocation is the audit record of one tool call. Customer usually
// holds an email address and is only logged verbatim when the audit
// logger includes PII.
type ToolInvocation struct {
	Tool     string
	Customer string

	// Quote is nil unless the call produced a quote.
	Quote    *QuoteOutcome
	Timezone string

	Start    time.Time
	Duration time.Duration
	Err      string
	finished bool

	TraceID string
	SpanID  string
}

// StartToolInvocation opens a record and picks up the span in ctx.
func StartToolInvocation(ctx context.Context, tool, customer string) *ToolInvocation {
	ti := &ToolInvocation{Tool: tool, Customer: customer, Start: time.Now()}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// RecordQuote attaches the generated quote.
func (ti *ToolInvocation) RecordQuote(id string, lines, unknownCodes int) {
	ti.Quote = &QuoteOutcome{ID: id, Lines: lines, UnknownCodes: unknownCodes}
}

// RecordTimezone attaches the zone a time lookup resolved.
func (ti *ToolInvocation) RecordTimezone(zone string) {
	ti.Timezone = zone
}

// Finish stops the clock. A nil err marks the call successful.
func (ti *ToolInvocation) Finish(err error) {
	ti.Duration = time.Since(ti.Start)
	ti.finished = true
	if err != nil {
		ti.Err = err.Error()
	}
}

// Success reports whether the call finished without error.
func (ti *ToolInvocation) Success() bool {
	return ti.finished && ti.Err == ""
}

// Status is StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success() {
		return StatusSuccess
	}
	return StatusError
}

// Attrs renders the record. Without includePII the customer is reduced
// to a hash plus its domain and the span id is left out.
func (ti *ToolInvocation) Attrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success()),
	}

	switch {
	case ti.Customer == "":
	case includePII:
		attrs = append(attrs, slog.String("customer", ti.Customer))
	default:
		attrs = append(attrs,
			logging.CustomerHash(ti.Customer),
			slog.String("customer_domain", ExtractCustomerDomain(ti.Customer)),
		)
	}

	if q := ti.Quote; q != nil {
		attrs = append(attrs,
			logging.QuoteID(q.ID),
			slog.Int("lines", q.Lines),
			slog.Int("unknown_codes", q.UnknownCodes),
		)
	}
	if ti.Timezone != "" {
		attrs = append(attrs, logging.Timezone(ti.Timezone))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if includePII && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Err != "" {
		attrs = append(attrs, slog.String("error", ti.Err))
	}
	return attrs
}

// AuditLogger writes one record per tool call. A nil AuditLogger drops
// everything.
type AuditLogger struct {
	logger *slog.Logger
	config AuditLoggingConfig
}

// NewAuditLogger logs through logger, or slog.Default() when nil.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger: logger.With(slog.String("component", "audit")),
		config: config,
	}
}

// Log writes ti at info level, or warn level when the call failed.
func (al *AuditLogger) Log(ti *ToolInvocation) {
	if al == nil || !al.config.Enabled {
		return
	}

	level, msg := slog.LevelInfo, "tool_executed"
	if !ti.Success() {
		level, msg = slog.LevelWarn, "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, ti.Attrs(al.config.IncludePII)...)
}
