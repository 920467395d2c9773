package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultServiceName is reported as service.name when OTEL_SERVICE_NAME is unset.
const DefaultServiceName = "calendar-mcp"

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname when empty.
	ServiceInstanceID string

	// Kubernetes metadata attached to the resource when set.
	K8sNamespace string
	K8sPodName   string

	// Enabled turns metrics and tracing on. A disabled provider hands out
	// a Metrics value whose recorders are no-ops.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme.
	OTLPEndpoint string

	// OTLPInsecure sends OTLP over plain HTTP. Development only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio sampler argument (0.0 to 1.0).
	TraceSamplingRate float64

	// PrometheusEndpoint is the path the metrics server serves on.
	PrometheusEndpoint string

	// DetailedLabels adds the calendar label to tool metrics. Calendar ids
	// are unbounded, so this stays off in production.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the per-call audit log.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs full calendar and event ids. Calendar ids are
	// frequently email addresses.
	IncludePII bool
}

// DefaultConfig returns a Config populated from the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:        getEnvOrDefault("OTEL_SERVICE_NAME", DefaultServiceName),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  getEnvOrDefault("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:       getEnvOrDefault("K8S_NAMESPACE", getEnvOrDefault("POD_NAMESPACE", "")),
		K8sPodName:         getEnvOrDefault("K8S_POD_NAME", getEnvOrDefault("HOSTNAME", "")),
		Enabled:            getEnvBoolOrDefault("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:    getEnvOrDefault("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    getEnvOrDefault("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  getEnvFloatOrDefault("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: getEnvOrDefault("PROMETHEUS_ENDPOINT", "/metrics"),
		DetailedLabels:     getEnvBoolOrDefault("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    getEnvBoolOrDefault("AUDIT_LOGGING_ENABLED", true),
			IncludePII: getEnvBoolOrDefault("AUDIT_LOGGING_INCLUDE_PII", false),
		},
	}
}

// Validate checks exporter names, the sampling rate and OTLP endpoint presence.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when using an OTLP exporter")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Token refresh results.
	TokenRefreshSuccess = "success"
	TokenRefreshFailure = "failure"

	ServiceCalendar = "calendar"

	// Backends behind the calendar tools.
	BackendGoogle = "google"
	BackendMock   = "mock"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	DefaultMetricInterval = 10 * time.Second
)
