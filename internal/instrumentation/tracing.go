package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans created by this module.
const TracerName = "github.com/XueTang422/calendar-mcp"

// Span attribute keys.
const (
	SpanAttrTool       = "mcp.tool"
	SpanAttrCallID     = "mcp.call_id"
	SpanAttrBackend    = "calendar.backend"
	SpanAttrService    = "google.service"
	SpanAttrOperation  = "google.operation"
	SpanAttrCalendarID = "calendar.id"
	SpanAttrEventID    = "calendar.event_id"
	SpanAttrReadOnly   = "mcp.read_only"
)

// SpanAttributeBuilder collects span attributes, skipping empty values.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{attrs: make([]attribute.KeyValue, 0, 8)}
}

func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	return b.add(SpanAttrTool, tool)
}

func (b *SpanAttributeBuilder) WithCallID(id string) *SpanAttributeBuilder {
	return b.add(SpanAttrCallID, id)
}

func (b *SpanAttributeBuilder) WithBackend(backend string) *SpanAttributeBuilder {
	return b.add(SpanAttrBackend, backend)
}

// WithCalendar records the calendar label rather than the raw id.
func (b *SpanAttributeBuilder) WithCalendar(calendarID string) *SpanAttributeBuilder {
	return b.add(SpanAttrCalendarID, CalendarLabel(calendarID))
}

func (b *SpanAttributeBuilder) WithEvent(eventID string) *SpanAttributeBuilder {
	return b.add(SpanAttrEventID, eventID)
}

func (b *SpanAttributeBuilder) WithReadOnly(readOnly bool) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrReadOnly, readOnly))
	return b
}

func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

func (b *SpanAttributeBuilder) add(key, value string) *SpanAttributeBuilder {
	if value != "" {
		b.attrs = append(b.attrs, attribute.String(key, value))
	}
	return b
}

// StartToolSpan starts a server span named tool.<name>. The caller ends it.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...)
	return otel.Tracer(TracerName).Start(ctx, "tool."+toolName,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartGoogleAPISpan starts a client span named google.<service>.<operation>.
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	}, attrs...)
	return otel.Tracer(TracerName).Start(ctx, "google."+service+"."+operation,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the trace id of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the span id of the span in ctx, or "".
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
