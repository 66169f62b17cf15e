package quote_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxquote/internal/server"
)

// RegisterQuoteTools registers all quoting tools and the catalog resource
// with the MCP server.
func RegisterQuoteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("failed to register quote tools: server and context are required")
	}

	registerQuoteGenerationTools(s, sc)
	registerTimeTools(s, sc)
	registerCatalogTools(s, sc)

	return nil
}
