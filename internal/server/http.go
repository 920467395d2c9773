package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is mounted.
const MCPEndpointPath = "/mcp"

// HTTPServer serves an MCP server over streamable HTTP, next to the health
// endpoints.
type HTTPServer struct {
	mcpServer        *mcpserver.MCPServer
	disableStreaming bool

	mu            sync.Mutex
	httpServer    *http.Server
	healthChecker *HealthChecker
	metrics       *instrumentation.Metrics
}

// NewHTTPServer creates a new HTTP server for mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, disableStreaming bool) *HTTPServer {
	return &HTTPServer{
		mcpServer:        mcpServer,
		disableStreaming: disableStreaming,
	}
}

// SetHealthChecker enables /healthz, /readyz and /healthz/detailed.
func (s *HTTPServer) SetHealthChecker(h *HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthChecker = h
}

// SetMetrics enables HTTP request metrics on the MCP endpoint.
func (s *HTTPServer) SetMetrics(m *instrumentation.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// Handler builds the request mux.
func (s *HTTPServer) Handler() http.Handler {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpointPath),
		mcpserver.WithDisableStreaming(s.disableStreaming),
	)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, s.instrumentationMiddleware(streamable))

	s.mu.Lock()
	health := s.healthChecker
	s.mu.Unlock()
	if health != nil {
		health.RegisterHealthEndpoints(mux)
	}
	return mux
}

// Start listens on addr and serves until Shutdown.
func (s *HTTPServer) Start(addr string) error {
	return s.StartWithReadySignal(addr, nil)
}

// StartWithReadySignal is like Start but sends the bound address on ready
// and closes it once the listener is up. ready needs a buffer of one.
func (s *HTTPServer) StartWithReadySignal(addr string, ready chan<- net.Addr) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	if ready != nil {
		ready <- ln.Addr()
		close(ready)
	}
	return srv.Serve(ln)
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// instrumentationMiddleware records http_requests_total and
// http_request_duration_seconds for every request.
func (s *HTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		metrics := s.metrics
		s.mu.Unlock()

		if metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent events working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
