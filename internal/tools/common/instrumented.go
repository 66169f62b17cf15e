package common

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/inboxquote/internal/instrumentation"
	"github.com/teemow/inboxquote/internal/logging"
	"github.com/teemow/inboxquote/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type invocationKey struct{}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging. The handler can attach outcome details to the audit
// record with RecordQuote and RecordTimezone.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Get metrics and audit logger (may be nil if not configured)
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		// If no instrumentation configured, just call the handler
		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		customer := GetCustomerFromArgs(request.GetArguments())

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, logging.AnonymizeCustomer(customer))
		invocation := instrumentation.StartToolInvocation(ctx, toolName, customer)
		ctx = context.WithValue(ctx, invocationKey{}, invocation)

		result, err := handler(ctx, request)

		outcome := err
		if err == nil && result != nil && result.IsError {
			outcome = errors.New(ResultText(result))
		}
		invocation.Finish(outcome)
		instrumentation.EndSpan(span, outcome)

		if metrics != nil {
			metrics.RecordToolInvocationWithCustomer(ctx, toolName, invocation.Status(), customer, invocation.Duration)
		}
		auditLogger.Log(invocation)

		return result, err
	}
}

// RecordQuote attaches a generated quote to the running tool invocation.
// It is a no-op outside an instrumented handler.
func RecordQuote(ctx context.Context, id string, lines, unknownCodes int) {
	if inv, ok := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation); ok {
		inv.RecordQuote(id, lines, unknownCodes)
	}
	trace.SpanFromContext(ctx).SetAttributes(instrumentation.QuoteAttributes(id, lines, unknownCodes)...)
}

// RecordTimezone attaches the resolved timezone to the running tool invocation.
func RecordTimezone(ctx context.Context, zone string) {
	if inv, ok := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation); ok {
		inv.RecordTimezone(zone)
	}
	trace.SpanFromContext(ctx).SetAttributes(instrumentation.TimezoneAttributes(zone)...)
}

// ResultText returns the text of the first text content in result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			return tc.Text
		}
	}
	return ""
}
