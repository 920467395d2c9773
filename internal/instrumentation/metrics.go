package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrBackend   = "backend"
	attrResult    = "result"
	attrTool      = "tool"
	attrCalendar  = "calendar"
)

var (
	latencyBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}
	apiBuckets     = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	eventBuckets   = []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}
)

// Metrics records the server's OpenTelemetry instruments. The zero value is
// valid and records nothing.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	tokenRefreshTotal metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	eventsListed metric.Int64Histogram

	detailedLabels bool
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	if m.httpRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	if m.httpRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	if m.googleAPIOperationsTotal, err = meter.Int64Counter("google_api_operations_total",
		metric.WithDescription("Total number of Google Calendar API operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	if m.googleAPIOperationDuration, err = meter.Float64Histogram("google_api_operation_duration_seconds",
		metric.WithDescription("Google Calendar API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(apiBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	if m.tokenRefreshTotal, err = meter.Int64Counter("oauth_token_refresh_total",
		metric.WithDescription("Total number of access tokens minted from the configured credentials"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	if m.toolInvocationsTotal, err = meter.Int64Counter("mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	if m.toolDuration, err = meter.Float64Histogram("mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(apiBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	if m.eventsListed, err = meter.Int64Histogram("calendar_events_listed",
		metric.WithDescription("Number of events returned per list call"),
		metric.WithUnit("{event}"),
		metric.WithExplicitBucketBoundaries(eventBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create calendar_events_listed histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records one request on the HTTP transport.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records one provider call. operation is one of the
// Operation* constants and status is StatusSuccess or StatusError.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRefresh counts an access token fetch from the credential source.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records one tool call. The calendar label is only
// attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, backend, status, calendar string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}

	kv := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrBackend, backend),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && calendar != "" {
		kv = append(kv, attribute.String(attrCalendar, calendar))
	}

	attrs := metric.WithAttributes(kv...)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordEventsListed records the size of a list result.
func (m *Metrics) RecordEventsListed(ctx context.Context, backend string, count int) {
	if m == nil || m.eventsListed == nil {
		return
	}
	m.eventsListed.Record(ctx, int64(count), metric.WithAttributes(attribute.String(attrBackend, backend)))
}
