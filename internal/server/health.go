package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/XueTang422/calendar-mcp/internal/calendar"
)

// Health status constants for health check responses.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// authNotRequired is reported for backends that never authenticate, such as
// the in-memory mock.
const authNotRequired = "not required"

// authReporter is implemented by calendar backends that authenticate
// against the provider.
type authReporter interface {
	AuthState() string
}

// HealthChecker serves the liveness and readiness endpoints. Readiness
// depends on the serve loop having marked the server ready, the server
// context not being shut down, and the calendar backend not having failed
// to authenticate.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	startTime time.Time
	version   string
}

// NewHealthChecker creates a new HealthChecker. version is reported by the
// detailed endpoint.
func NewHealthChecker(sc *ServerContext, version string) *HealthChecker {
	h := &HealthChecker{
		sc:        sc,
		startTime: time.Now(),
		version:   version,
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse provides comprehensive health information.
type DetailedHealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version,omitempty"`
	Backend string `json:"backend,omitempty"`
	Auth    string `json:"auth,omitempty"`
}

// readiness is the outcome of one evaluation of the readiness checks.
type readiness struct {
	status  string
	checks  map[string]string
	backend string
	auth    string
}

func (r readiness) ok() bool { return r.status == healthStatusOK }

func (h *HealthChecker) evaluate() readiness {
	r := readiness{status: healthStatusOK, checks: map[string]string{}}

	r.checks["ready"] = healthStatusOK
	if !h.ready.Load() {
		r.checks["ready"] = healthStatusNotReady
		r.status = healthStatusNotReady
	}

	if h.sc == nil {
		return r
	}

	r.checks["shutdown"] = healthStatusOK
	if h.sc.IsShutdown() {
		r.checks["shutdown"] = healthStatusShuttingDown
		if r.ok() {
			r.status = healthStatusShuttingDown
		}
	}

	r.backend = h.sc.Backend()
	if r.backend != "" {
		r.checks["backend"] = r.backend
	}

	r.auth = authNotRequired
	if ar, ok := h.sc.Calendar().(authReporter); ok {
		r.auth = ar.AuthState()
	}
	r.checks["auth"] = r.auth
	if r.auth == calendar.AuthStateFailed && r.ok() {
		r.status = healthStatusNotReady
	}
	return r
}

func writeHealth(w http.ResponseWriter, ok bool, body any) {
	w.Header().Set("Content-Type", "application/json")
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}

// LivenessHandler serves /healthz. It succeeds while the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, true, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz. Any status other than ok is reported as
// not ready with a 503; the checks say which one failed.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		r := h.evaluate()
		status := r.status
		if !r.ok() {
			status = healthStatusNotReady
		}
		writeHealth(w, r.ok(), HealthResponse{Status: status, Checks: r.checks})
	})
}

// DetailedHealthHandler serves /healthz/detailed.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		r := h.evaluate()
		writeHealth(w, r.ok(), DetailedHealthResponse{
			Status:  r.status,
			Uptime:  time.Since(h.startTime).Truncate(time.Second).String(),
			Version: h.version,
			Backend: r.backend,
			Auth:    r.auth,
		})
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
