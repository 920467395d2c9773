package instrumentation

import (
	"context"
	"log/slog"
	"time"
)

// ToolInvocation is the audit record for one tool call.
//
// CalendarID and EventID can be personal data (calendar ids are usually
// email addresses). LogAttrs reduces the calendar to CalendarLabel and
// drops the event id; LogAuditAttrs keeps both.
type ToolInvocation struct {
	Tool    string
	CallID  string
	Backend string

	CalendarID string
	EventID    string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a call.
func NewToolInvocation(tool, callID string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		CallID:    callID,
		StartTime: time.Now(),
	}
}

func (ti *ToolInvocation) WithBackend(backend string) *ToolInvocation {
	ti.Backend = backend
	return ti
}

// WithTarget records the calendar and event the call addressed.
func (ti *ToolInvocation) WithTarget(calendarID, eventID string) *ToolInvocation {
	ti.CalendarID = calendarID
	ti.EventID = eventID
	return ti
}

// WithSpanContext copies trace and span ids from ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete stops the clock. errText is the text returned to the client for
// failed calls.
func (ti *ToolInvocation) Complete(success bool, errText string) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	ti.Error = errText
	return ti
}

func (ti *ToolInvocation) CalendarLabel() string {
	return CalendarLabel(ti.CalendarID)
}

func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the attributes for operational logs.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("call_id", ti.CallID),
		slog.String("calendar", ti.CalendarLabel()),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	return ti.appendCommon(attrs, false)
}

// LogAuditAttrs returns the attributes for the audit stream, including the
// raw calendar and event ids.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("call_id", ti.CallID),
		slog.String("calendar_id", ti.CalendarID),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.EventID != "" {
		attrs = append(attrs, slog.String("event_id", ti.EventID))
	}
	return ti.appendCommon(attrs, true)
}

func (ti *ToolInvocation) appendCommon(attrs []slog.Attr, withSpan bool) []slog.Attr {
	if ti.Backend != "" {
		attrs = append(attrs, slog.String("backend", ti.Backend))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if withSpan && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// AuditLogger writes one record per tool call.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger returns an enabled AuditLogger that omits PII.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs ti at Info on success and Warn on failure.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs()
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	}

	level, msg := slog.LevelInfo, "tool_executed"
	if !ti.Success {
		level, msg = slog.LevelWarn, "tool_failed"
	}
	al.logger.LogAttrs(ctx, level, msg, attrs...)
}
