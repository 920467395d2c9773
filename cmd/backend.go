package cmd

import (
	"log/slog"

	"github.com/XueTang422/calendar-mcp/internal/calendar"
	"github.com/XueTang422/calendar-mcp/internal/config"
	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
	"github.com/XueTang422/calendar-mcp/internal/logging"
)

const (
	serverName     = "google-calendar"
	testServerName = "google-calendar-test"
	testSuffix     = "-test"
)

// backend is the calendar implementation chosen at startup together with
// the identity the MCP server reports for it.
type backend struct {
	cal     calendar.Calendar
	kind    string
	name    string
	version string
}

// newBackend returns the in-memory mock when mock is set. Otherwise the
// credentials in cfg must resolve to a usable source; the remote client
// authenticates lazily on first use.
func newBackend(cfg config.Config, mock bool, metrics *instrumentation.Metrics, logger *slog.Logger) (*backend, error) {
	if mock {
		return &backend{
			cal:     calendar.NewMockClient(),
			kind:    instrumentation.BackendMock,
			name:    testServerName,
			version: version + testSuffix,
		}, nil
	}

	auth := cfg.Auth()
	if err := auth.Validate(); err != nil {
		return nil, err
	}
	logger.Info("using google calendar backend", slog.String("auth_method", auth.Method().String()))

	return &backend{
		cal: calendar.NewRemoteClient(auth,
			calendar.WithMetrics(metrics),
			calendar.WithLogger(logging.NewSlogAdapter(logger).With(logging.KeyBackend, instrumentation.BackendGoogle)),
		),
		kind:    instrumentation.BackendGoogle,
		name:    serverName,
		version: version,
	}, nil
}
