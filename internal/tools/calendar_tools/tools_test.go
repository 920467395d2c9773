package calendar_tools

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XueTang422/calendar-mcp/internal/calendar"
	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
	"github.com/XueTang422/calendar-mcp/internal/server"
)

func newTestServer(t *testing.T) *mcpserver.MCPServer {
	t.Helper()

	sc, err := server.NewServerContext(context.Background(), calendar.NewMockClient(), instrumentation.BackendMock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	return newTestServerWithContext(t, sc)
}

func newTestServerWithContext(t *testing.T, sc *server.ServerContext) *mcpserver.MCPServer {
	t.Helper()

	opts := append(ServerOptions(nil), mcpserver.WithToolCapabilities(false))
	s := mcpserver.NewMCPServer("google-calendar-test", "0.1.0-test", opts...)
	require.NoError(t, RegisterCalendarTools(s, sc))
	return s
}

// rpc sends one JSON-RPC request and decodes the response.
func rpc(t *testing.T, s *mcpserver.MCPServer, request string) map[string]any {
	t.Helper()

	resp := s.HandleMessage(context.Background(), json.RawMessage(request))
	require.NotNil(t, resp)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func callResult(t *testing.T, resp map[string]any) (string, bool) {
	t.Helper()

	require.Nil(t, resp["error"], "expected a result, got JSON-RPC error %v", resp["error"])
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok, "missing result in %v", resp)

	content, ok := result["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)

	item := content[0].(map[string]any)
	assert.Equal(t, "text", item["type"])
	isError, _ := result["isError"].(bool)
	return item["text"].(string), isError
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 4)

	byName := make(map[string]mcp.Tool)
	for _, d := range defs {
		byName[d.Name] = d
		assert.NotEmpty(t, d.Description, d.Name)
	}
	for _, name := range KnownTools {
		assert.Contains(t, byName, name)
	}

	assert.ElementsMatch(t, []string{"summary", "start", "end"}, byName[ToolCreateEvent].InputSchema.Required)
	assert.ElementsMatch(t, []string{"eventId", "start", "end"}, byName[ToolRescheduleEvent].InputSchema.Required)
	assert.ElementsMatch(t, []string{"eventId"}, byName[ToolDeleteEvent].InputSchema.Required)
	assert.Empty(t, byName[ToolListEvents].InputSchema.Required)

	start := byName[ToolCreateEvent].InputSchema.Properties["start"].(map[string]any)
	assert.Equal(t, "object", start["type"])
	assert.Equal(t, []string{"dateTime"}, start["required"])

	maxResults := byName[ToolListEvents].InputSchema.Properties["maxResults"].(map[string]any)
	assert.Equal(t, "number", maxResults["type"])
}

func TestRouteUnknownTool(t *testing.T) {
	var req mcp.CallToolRequest
	req.Params.Name = "calendar_get_event"
	req.Params.Arguments = map[string]any{"eventId": "x"}

	RouteUnknownTool(context.Background(), 1, &req)
	assert.Equal(t, FallbackToolName, req.Params.Name)
	assert.Equal(t, map[string]any{"name": "calendar_get_event"}, req.Params.Arguments)

	req.Params.Name = ToolListEvents
	req.Params.Arguments = map[string]any{"q": "x"}
	RouteUnknownTool(context.Background(), 2, &req)
	assert.Equal(t, ToolListEvents, req.Params.Name)
	assert.Equal(t, map[string]any{"q": "x"}, req.Params.Arguments)
}

func TestServer_ToolsList(t *testing.T) {
	s := newTestServer(t)

	resp := rpc(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	result := resp["result"].(map[string]any)
	tools := result["tools"].([]any)

	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, KnownTools, names)
	assert.NotContains(t, names, FallbackToolName)
}

func TestServer_UnknownTool(t *testing.T) {
	s := newTestServer(t)

	resp := rpc(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"google_calendar_get_event","arguments":{"eventId":"x"}}}`)
	text, isError := callResult(t, resp)
	assert.True(t, isError)
	assert.Equal(t, "Unknown tool: google_calendar_get_event", text)
}

func TestServer_UnknownToolIsAudited(t *testing.T) {
	var buf bytes.Buffer
	sc, err := server.NewServerContext(context.Background(), calendar.NewMockClient(), instrumentation.BackendMock,
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(
			slog.New(slog.NewJSONHandler(&buf, nil)),
			instrumentation.AuditLoggingConfig{Enabled: true},
		)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	s := newTestServerWithContext(t, sc)

	resp := rpc(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"google_calendar_get_event"}}`)
	_, isError := callResult(t, resp)
	require.True(t, isError)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record), buf.String())
	assert.Equal(t, "tool_failed", record["msg"])
	assert.Equal(t, FallbackToolName, record["tool"])
	assert.Equal(t, "Unknown tool: google_calendar_get_event", record["error"])
}

func TestServer_CallTools(t *testing.T) {
	s := newTestServer(t)

	resp := rpc(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"google_calendar_create_event","arguments":{
		"summary":"Test Meeting",
		"start":{"dateTime":"2024-08-25T15:00:00Z"},
		"end":{"dateTime":"2024-08-25T16:00:00Z"}
	}}}`)
	text, isError := callResult(t, resp)
	require.False(t, isError, text)

	var ev calendar.Event
	require.NoError(t, json.Unmarshal([]byte(text), &ev))
	assert.Equal(t, "Test Meeting", ev.Summary)

	resp = rpc(t, s, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"google_calendar_delete_event","arguments":{}}}`)
	text, isError = callResult(t, resp)
	assert.True(t, isError)
	assert.Equal(t, `Error deleting calendar event: Invalid arguments for google_calendar_delete_event: field "eventId" is required`, text)

	resp = rpc(t, s, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"google_calendar_list_events"}}`)
	text, isError = callResult(t, resp)
	require.False(t, isError, text)
	assert.Contains(t, text, `"summary": "Found 2 event(s)"`)
}

func TestHideFallbackTool(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool(ToolListEvents),
		mcp.NewTool(FallbackToolName),
	}

	visible := HideFallbackTool(context.Background(), tools)
	require.Len(t, visible, 1)
	assert.Equal(t, ToolListEvents, visible[0].Name)
}
