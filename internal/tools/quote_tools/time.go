package quote_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxquote/internal/instrumentation"
	"github.com/teemow/inboxquote/internal/server"
	"github.com/teemow/inboxquote/internal/tools/common"
)

const timezoneNameArg = "timezone_name"

// registerTimeTools registers get_current_time. The tool description
// names the server's default zone so clients can fall back to it.
func registerTimeTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	localZone := sc.Clock().DefaultZone().String()

	getCurrentTimeTool := mcp.NewTool("get_current_time",
		mcp.WithDescription(fmt.Sprintf("Get the current time in a specific timezone. The server's local timezone is %s.", localZone)),
		mcp.WithTitleAnnotation("Get Current Time"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
		mcp.WithString(timezoneNameArg,
			mcp.Required(),
			mcp.Description(fmt.Sprintf("IANA timezone name (e.g., 'America/New_York', 'Europe/London'). "+
				"Use '%s' as local timezone if no timezone provided by the user.", localZone)),
		),
	)

	s.AddTool(getCurrentTimeTool, common.InstrumentedToolHandler("get_current_time", sc, handleGetCurrentTime(sc)))
}

func handleGetCurrentTime(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		name := request.GetString(timezoneNameArg, "")

		result, err := sc.Clock().CurrentTime(name)
		if err != nil {
			metrics.RecordTimeLookup(ctx, instrumentation.TimeResultInvalidTimezone)
			return mcp.NewToolResultError(err.Error()), nil
		}
		metrics.RecordTimeLookup(ctx, instrumentation.TimeResultSuccess)
		common.RecordTimezone(ctx, result.Timezone)

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultErrorFromErr("failed to encode time", err), nil
		}
		return mcp.NewToolResultStructured(result, string(data)), nil
	}
}
