package calendar_tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
	"github.com/XueTang422/calendar-mcp/internal/logging"
	"github.com/XueTang422/calendar-mcp/internal/server"
	"github.com/XueTang422/calendar-mcp/internal/tools/common"
)

// FallbackToolName is the hidden tool that answers calls to unknown tool
// names. It is never listed to clients.
const FallbackToolName = "_unknown_tool"

// fallbackNameArg carries the originally requested tool name.
const fallbackNameArg = "name"

// Google Calendar operation behind each tool.
var toolOperations = map[string]string{
	ToolCreateEvent:     instrumentation.OperationInsert,
	ToolRescheduleEvent: instrumentation.OperationUpdate,
	ToolDeleteEvent:     instrumentation.OperationDelete,
	ToolListEvents:      instrumentation.OperationList,
}

// AddHooks installs the hook that reroutes calls for unknown tools to the
// fallback tool, so they get an error result instead of a JSON-RPC error.
func AddHooks(hooks *mcpserver.Hooks) {
	hooks.AddBeforeCallTool(RouteUnknownTool)
}

// RouteUnknownTool rewrites a call for a tool outside KnownTools into a
// call of the fallback tool.
func RouteUnknownTool(_ context.Context, _ any, req *mcp.CallToolRequest) {
	if IsKnownTool(req.Params.Name) {
		return
	}
	req.Params.Arguments = map[string]any{fallbackNameArg: req.Params.Name}
	req.Params.Name = FallbackToolName
}

// HideFallbackTool is a tool filter that removes the fallback tool from
// tools/list.
func HideFallbackTool(_ context.Context, tools []mcp.Tool) []mcp.Tool {
	visible := make([]mcp.Tool, 0, len(tools))
	for _, tool := range tools {
		if tool.Name != FallbackToolName {
			visible = append(visible, tool)
		}
	}
	return visible
}

// ServerOptions returns the mcp-go options the calendar tools rely on. hooks
// may already carry other hooks; it is created when nil.
func ServerOptions(hooks *mcpserver.Hooks) []mcpserver.ServerOption {
	if hooks == nil {
		hooks = &mcpserver.Hooks{}
	}
	AddHooks(hooks)
	return []mcpserver.ServerOption{
		mcpserver.WithHooks(hooks),
		mcpserver.WithToolFilter(HideFallbackTool),
	}
}

// RegisterCalendarTools registers all Calendar-related tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	dispatcher := NewDispatcher(sc.Calendar(),
		WithBackend(sc.Backend()),
		WithMetrics(sc.Metrics()),
		WithLogger(sc.Logger()),
	)

	for _, tool := range Definitions() {
		name := tool.Name
		handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return dispatcher.Call(ctx, name, request.Params.Arguments), nil
		}
		s.AddTool(tool, common.InstrumentedToolHandlerWithService(
			name, instrumentation.ServiceCalendar, toolOperations[name], sc, handler))
	}

	s.AddTool(mcp.NewTool(FallbackToolName,
		mcp.WithDescription("Answers calls to tools this server does not provide."),
		mcp.WithString(fallbackNameArg),
	), common.InstrumentedToolHandler(FallbackToolName, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, _ := request.GetArguments()[fallbackNameArg].(string)
		sc.Logger().Debug("unknown tool called", logging.Tool(name), slog.String("session", sessionID(ctx)))
		return UnknownToolResult(name), nil
	}))

	return nil
}

func sessionID(ctx context.Context) string {
	if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
		return session.SessionID()
	}
	return ""
}
