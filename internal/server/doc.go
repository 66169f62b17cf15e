// Package server provides the MCP server context and the HTTP servers for
// the inboxquote application.
//
// # Key Components
//
// ServerContext owns the quote engine, the clock and the optional
// instrumentation (metrics and audit logging) shared by all tools.
//
// NewMCPServer builds the mcp-go server with session hooks that feed the
// SessionTracker and the active session gauge.
//
// HTTPServer exposes the MCP server over the streamable HTTP transport:
//   - /mcp for MCP requests, optionally rate limited per client IP
//   - /healthz, /readyz and /healthz/detailed for Kubernetes probes
//   - HTTPS when a certificate and key are configured
//
// MetricsServer serves Prometheus metrics on a dedicated port so that
// operational metrics are not reachable through the MCP endpoint.
package server
