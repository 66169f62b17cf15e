package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServerName is the MCP implementation name reported to clients.
const ServerName = "inboxquote"

const serverInstructions = `Turns customer request-for-quote emails into priced quotes.
Use generate_quote with the raw email body; codes that are not in the catalog
are listed under unknown_codes. Use get_current_time when a quote needs to be
dated for a customer in another timezone.`

// NewMCPServer creates the MCP server and wires session lifecycle hooks
// into the session tracker and the active session gauge of sc.
func NewMCPServer(version string, sc *ServerContext) *mcpserver.MCPServer {
	hooks := &mcpserver.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		if sc.Sessions().Register(session.SessionID()) {
			sc.Metrics().IncrementActiveSessions(ctx)
		}
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		if sc.Sessions().Unregister(session.SessionID()) {
			sc.Metrics().DecrementActiveSessions(ctx)
		}
	})
	hooks.AddBeforeAny(func(ctx context.Context, _ any, _ mcp.MCPMethod, _ any) {
		if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
			sc.Sessions().Touch(session.SessionID())
		}
	})

	return mcpserver.NewMCPServer(ServerName, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		mcpserver.WithInstructions(serverInstructions),
		mcpserver.WithHooks(hooks),
		mcpserver.WithRecovery(),
	)
}

// ExpireSessions drops idle sessions from sc and keeps the gauge in step.
// It blocks until the server context is cancelled.
func ExpireSessions(sc *ServerContext) {
	ctx := sc.Context()
	sc.Sessions().Run(ctx, sessionCleanupInterval, DefaultSessionTimeout, func(string) {
		sc.Metrics().DecrementActiveSessions(ctx)
	})
}
