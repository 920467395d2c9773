// Package server provides the MCP server context and the HTTP plumbing
// around the Google Calendar tools.
//
// # Key Components
//
// ServerContext carries the calendar backend (remote Google Calendar or the
// in-memory mock) together with the metrics recorder, audit logger and
// logger used by the tool handlers. Shutdown cancels its context and flips
// readiness.
//
// HTTPServer mounts the mcp-go streamable HTTP transport on /mcp, wraps it
// with request metrics and, when a HealthChecker is set, serves:
//   - /healthz: liveness
//   - /readyz: readiness, including the backend kind
//   - /healthz/detailed: uptime, version and backend
//
// MetricsServer exposes the Prometheus registry of an instrumentation
// provider on a dedicated port so scraping never shares the MCP listener.
package server
