package calendar_tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/XueTang422/calendar-mcp/internal/calendar"
	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
	"github.com/XueTang422/calendar-mcp/internal/logging"
)

// Error prefixes for each tool, prepended to validation and backend errors.
var errorPrefixes = map[string]string{
	ToolCreateEvent:     "Error creating calendar event: ",
	ToolRescheduleEvent: "Error rescheduling calendar event: ",
	ToolDeleteEvent:     "Error deleting calendar event: ",
	ToolListEvents:      "Error listing calendar events: ",
}

// Dispatcher routes a tool call to the matching validator and calendar
// operation and turns the outcome into a tool result. It never returns a Go
// error: every failure becomes a result with IsError set.
type Dispatcher struct {
	cal     calendar.Calendar
	backend string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithBackend names the calendar backend in metrics, e.g. "google" or "mock".
func WithBackend(backend string) DispatcherOption {
	return func(d *Dispatcher) { d.backend = backend }
}

func WithMetrics(m *instrumentation.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher over cal.
func NewDispatcher(cal calendar.Calendar, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cal:     cal,
		backend: instrumentation.BackendGoogle,
		logger:  logging.Discard().Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call runs the tool called name with raw arguments args.
func (d *Dispatcher) Call(ctx context.Context, name string, args any) (result *mcp.CallToolResult) {
	prefix, ok := errorPrefixes[name]
	if !ok {
		return UnknownToolResult(name)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked", logging.Tool(name), slog.Any("panic", r))
			result = mcp.NewToolResultError(prefix + fmt.Sprint(r))
		}
	}()

	text, err := d.run(ctx, name, args)
	if err != nil {
		d.logger.Debug("tool call failed", logging.Tool(name), logging.Err(err))
		return mcp.NewToolResultError(prefix + err.Error())
	}
	return mcp.NewToolResultText(text)
}

func (d *Dispatcher) run(ctx context.Context, name string, raw any) (string, error) {
	switch name {
	case ToolCreateEvent:
		args, err := ParseCreateEventArgs(raw)
		if err != nil {
			return "", err
		}
		ev, err := d.cal.CreateEvent(ctx, args)
		if err != nil {
			return "", err
		}
		return calendar.FormatEvent(ev), nil

	case ToolRescheduleEvent:
		args, err := ParseRescheduleEventArgs(raw)
		if err != nil {
			return "", err
		}
		ev, err := d.cal.RescheduleEvent(ctx, args)
		if err != nil {
			return "", err
		}
		return calendar.FormatEvent(ev), nil

	case ToolDeleteEvent:
		args, err := ParseDeleteEventArgs(raw)
		if err != nil {
			return "", err
		}
		if err := d.cal.DeleteEvent(ctx, args); err != nil {
			return "", err
		}
		return calendar.FormatDeleted(args.EventID, args.CalendarID), nil

	case ToolListEvents:
		args, err := ParseListEventsArgs(raw)
		if err != nil {
			return "", err
		}
		list, err := d.cal.ListEvents(ctx, args)
		if err != nil {
			return "", err
		}
		d.metrics.RecordEventsListed(ctx, d.backend, len(list.Events))
		return calendar.FormatEventList(list), nil
	}
	return "", fmt.Errorf("unhandled tool %s", name)
}

// UnknownToolResult is the result for a tool name outside KnownTools.
func UnknownToolResult(name string) *mcp.CallToolResult {
	return mcp.NewToolResultError("Unknown tool: " + name)
}
