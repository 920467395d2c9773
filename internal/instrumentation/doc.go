// Package instrumentation wires OpenTelemetry metrics and tracing for the
// calendar MCP server.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: HTTP transport
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: tool calls by tool, backend and status
//   - google_api_operations_total, google_api_operation_duration_seconds: Calendar API calls
//   - oauth_token_refresh_total: access tokens minted from the configured credentials
//   - calendar_events_listed: result size of list calls
//
// Metrics are exported to Prometheus (default, served by the metrics server),
// OTLP or stdout.
//
// # Tracing
//
// Tool calls run in a tool.<name> server span; each Calendar API request
// runs in a google.calendar.<operation> client span. Traces are exported via
// OTLP or stdout and are off by default.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED (default true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout
//   - TRACING_EXPORTER: otlp, stdout, none
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default 0.1)
//   - OTEL_SERVICE_NAME (default calendar-mcp)
//   - METRICS_DETAILED_LABELS: add the calendar label to tool metrics
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII
package instrumentation
