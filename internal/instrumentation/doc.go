// Package instrumentation provides OpenTelemetry instrumentation for the
// inboxquote MCP server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, quotes and tool calls
//   - Distributed tracing for tool invocations and quote generation
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//   - Audit logging of tool invocations
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of active MCP client sessions
//
// Quote Metrics:
//   - quotes_total: Counter of quote requests by result (quoted, unknown_product, parse_error)
//   - quote_lines: Histogram of priced lines per quote
//   - quote_grand_total: Histogram of quote totals by currency
//   - unknown_product_codes_total: Counter of codes missing from the catalog by code family
//   - catalog_products: Gauge of products in the loaded catalog
//   - time_lookups_total: Counter of current-time lookups by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and internal
// operations such as quote.generate.
//
// # Configuration
//
// ConfigFromEnv reads these variables and rejects malformed values:
//   - INSTRUMENTATION_ENABLED (default true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default prometheus)
//   - METRICS_EXPORT_INTERVAL: push interval of otlp and stdout (default 10s)
//   - METRICS_DETAILED_LABELS: add the customer domain to tool metrics
//   - TRACING_EXPORTER: otlp, stdout or none (default none)
//   - OTEL_TRACES_SAMPLER_ARG: sampling ratio between 0 and 1 (default 0.1)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_SERVICE_NAME (default inboxquote), OTEL_RESOURCE_ATTRIBUTES
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII
//
// # Example Usage
//
//	cfg, err := instrumentation.ConfigFromEnv()
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordQuote(ctx, len(q.Lines), q.UnknownCodes, total, q.Currency)
//	recorder.RecordToolInvocation(ctx, "generate_quote", "success", time.Since(start))
package instrumentation
