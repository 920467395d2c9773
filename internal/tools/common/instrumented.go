package common

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
	"github.com/XueTang422/calendar-mcp/internal/server"
)

// ToolHandler is the signature of an mcp-go tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with tracing, metrics and
// audit logging. Each call gets a fresh call id.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrument(toolName, nil, sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// tags the tool span with the Google service and operation it maps to.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("my_tool", "calendar", "list", sc, handler))
func InstrumentedToolHandlerWithService(
	toolName string,
	serviceName string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	attrs := []attribute.KeyValue{
		attribute.String(instrumentation.SpanAttrService, serviceName),
		attribute.String(instrumentation.SpanAttrOperation, operation),
		attribute.Bool(instrumentation.SpanAttrReadOnly, operation == instrumentation.OperationList),
	}
	return instrument(toolName, attrs, sc, handler)
}

func instrument(toolName string, extra []attribute.KeyValue, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		callID := uuid.NewString()
		calendarID, eventID := TargetFromArgs(request.GetArguments())

		attrs := instrumentation.NewSpanAttributeBuilder().
			WithCallID(callID).
			WithBackend(sc.Backend()).
			WithCalendar(calendarID).
			WithEvent(eventID).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, append(attrs, extra...)...)

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName, callID).
			WithBackend(sc.Backend()).
			WithTarget(calendarID, eventID).
			WithSpanContext(ctx)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		errText := ""
		switch {
		case err != nil:
			errText = err.Error()
		case result != nil && result.IsError:
			errText = resultText(result)
		}
		failed := err != nil || (result != nil && result.IsError)
		invocation.Complete(!failed, errText)

		var spanErr error
		if failed {
			spanErr = toolError(errText)
		}
		instrumentation.EndSpan(span, spanErr)

		metrics.RecordToolInvocation(ctx, toolName, sc.Backend(), invocation.Status(), invocation.CalendarLabel(), duration)
		auditLogger.LogToolInvocation(ctx, invocation)

		return result, err
	}
}

type toolError string

func (e toolError) Error() string { return string(e) }

// resultText joins the text content of a tool result.
func resultText(result *mcp.CallToolResult) string {
	var text string
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			if text != "" {
				text += "\n"
			}
			text += tc.Text
		}
	}
	return text
}
