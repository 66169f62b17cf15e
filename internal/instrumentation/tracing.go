package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer every inboxquote span is created with.
const TracerName = "github.com/teemow/inboxquote"

// Span attribute keys.
const (
	AttrTool         = "mcp.tool"
	AttrCustomer     = "mcp.customer"
	AttrQuoteID      = "quote.id"
	AttrQuoteLines   = "quote.lines"
	AttrUnknownCodes = "quote.unknown_codes"
	AttrCurrency     = "quote.currency"
	AttrTimezone     = "clock.timezone"
)

// SpanQuoteGenerate names the span around parsing and pricing one email.
const SpanQuoteGenerate = "quote.generate"

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartToolSpan starts the server span of one MCP tool call. customer is
// the anonymized identifier and is omitted when empty.
func StartToolSpan(ctx context.Context, toolName, customer string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(AttrTool, toolName)}
	if customer != "" {
		attrs = append(attrs, attribute.String(AttrCustomer, customer))
	}
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartInternalSpan starts a child span for a step such as SpanQuoteGenerate.
func StartInternalSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// QuoteAttributes describes a generated quote.
func QuoteAttributes(id string, lines, unknownCodes int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if id != "" {
		attrs = append(attrs, attribute.String(AttrQuoteID, id))
	}
	return append(attrs,
		attribute.Int(AttrQuoteLines, lines),
		attribute.Int(AttrUnknownCodes, unknownCodes),
	)
}

// TimezoneAttributes describes a time lookup. An empty zone yields none.
func TimezoneAttributes(zone string) []attribute.KeyValue {
	if zone == "" {
		return nil
	}
	return []attribute.KeyValue{attribute.String(AttrTimezone, zone)}
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the trace id of the span in ctx, or "" without one.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
