package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/XueTang422/calendar-mcp/internal/config"
	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
	"github.com/XueTang422/calendar-mcp/internal/logging"
	"github.com/XueTang422/calendar-mcp/internal/server"
	"github.com/XueTang422/calendar-mcp/internal/tools/calendar_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	transport        string
	stdio            bool
	port             int
	mock             bool
	debug            bool
	disableStreaming bool
	envFiles         []string
	metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Google Calendar MCP server",
		Long: `Start the MCP server exposing four Google Calendar tools:
google_calendar_create_event, google_calendar_reschedule_event,
google_calendar_delete_event and google_calendar_list_events.

Supports multiple transports:
  - streamable-http: Streamable HTTP transport on /mcp (default)
  - stdio: Standard input/output for local MCP clients

Credentials are read from the environment (or a .env file):
  - GOOGLE_APPLICATION_CREDENTIALS: path to a service account key file
  - GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, GOOGLE_REFRESH_TOKEN: OAuth2 refresh token

Use --mock to serve an in-memory calendar without credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStreamableHTTP, "Transport type: stdio or streamable-http")
	cmd.Flags().BoolVar(&opts.stdio, "stdio", false, "Shorthand for --transport stdio")
	cmd.Flags().IntVar(&opts.port, "port", config.DefaultPort, "HTTP port for the streamable-http transport. Can also use PORT env var.")
	cmd.Flags().BoolVar(&opts.mock, "mock", false, "Serve an in-memory test calendar instead of Google Calendar")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().StringArrayVar(&opts.envFiles, "env-file", nil, "Load environment variables from this dotenv file (repeatable, default: .env)")

	// Metrics server configuration
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return err
	}
	resolveServeOptions(cmd, &opts, cfg)

	// stdout belongs to JSON-RPC on stdio, so logs always go to stderr
	logger := logging.NewLogger(os.Stderr, logging.Options{Debug: opts.debug, JSON: cfg.Production})
	slog.SetDefault(logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if opts.transport == transportStdio {
		quietStdoutExporters(&instrConfig, logger)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	b, err := newBackend(cfg, opts.mock, provider.Metrics(), logger)
	if err != nil {
		return err
	}

	// Create server context
	serverContext, err := server.NewServerContext(shutdownCtx, b.cal, b.kind,
		server.WithMetrics(provider.Metrics()),
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
		server.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := newMCPServer(b, logger)
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}

	logger.Info("starting MCP server",
		slog.String("name", b.name),
		slog.String("version", b.version),
		slog.String("transport", opts.transport),
		slog.String("backend", b.kind))

	// Start the appropriate server based on transport type
	switch opts.transport {
	case transportStdio:
		return runStdioServer(shutdownCtx, mcpSrv)
	case transportStreamableHTTP:
		metricsServer, err := startMetricsServer(opts.metrics, provider, logger)
		if err != nil {
			return err
		}
		if metricsServer != nil {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := metricsServer.Shutdown(ctx); err != nil {
					logger.Warn("metrics server shutdown failed", logging.Err(err))
				}
			}()
		}
		addr := net.JoinHostPort("", strconv.Itoa(opts.port))
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, addr, opts.disableStreaming, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", opts.transport, transportStdio, transportStreamableHTTP)
	}
}

// resolveServeOptions applies --stdio and fills flags the user did not set
// from the loaded configuration and environment.
func resolveServeOptions(cmd *cobra.Command, opts *serveOptions, cfg config.Config) {
	if opts.stdio {
		opts.transport = transportStdio
	}
	if !cmd.Flags().Changed("port") {
		opts.port = cfg.Port
	}
	loadMetricsEnvVars(cmd, &opts.metrics)
}

// loadMetricsEnvVars loads metrics server configuration from environment variables.
// Environment variables only override flag values when the flag was not explicitly set.
func loadMetricsEnvVars(cmd *cobra.Command, metrics *MetricsConfig) {
	if !cmd.Flags().Changed("metrics-enabled") {
		if raw := os.Getenv("METRICS_ENABLED"); raw != "" {
			if enabled, err := strconv.ParseBool(raw); err == nil {
				metrics.Enabled = enabled
			}
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metrics.Addr = addr
		}
	}
}

// quietStdoutExporters switches stdout exporters off for the stdio
// transport, where stdout carries the protocol stream.
func quietStdoutExporters(cfg *instrumentation.Config, logger *slog.Logger) {
	if cfg.MetricsExporter == instrumentation.ExporterStdout {
		logger.Warn("stdout metrics exporter is not available with the stdio transport; using prometheus")
		cfg.MetricsExporter = instrumentation.ExporterPrometheus
	}
	if cfg.TracingExporter == instrumentation.ExporterStdout {
		logger.Warn("stdout tracing exporter is not available with the stdio transport; tracing disabled")
		cfg.TracingExporter = instrumentation.ExporterNone
	}
}

func newMCPServer(b *backend, logger *slog.Logger) *mcpserver.MCPServer {
	opts := []mcpserver.ServerOption{
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	}
	opts = append(opts, calendar_tools.ServerOptions(nil)...)

	mcpSrv := mcpserver.NewMCPServer(b.name, b.version, opts...)
	mcpSrv.AddNotificationHandler("notifications/initialized", func(ctx context.Context, _ mcp.JSONRPCNotification) {
		attrs := []any{slog.String("server", b.name)}
		if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
			attrs = append(attrs, slog.String("session_id", session.SessionID()))
		}
		logger.Info("client initialized", attrs...)
	})
	return mcpSrv
}

// startMetricsServer starts the metrics server when enabled and the provider
// exports Prometheus metrics. It returns nil when no server was started.
func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	if !cfg.Enabled || !provider.Enabled() || provider.Handler() == nil {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
			metricsErr <- err
		}
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server listening", slog.String("addr", metricsServer.Addr()))
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	stdioSrv := mcpserver.NewStdioServer(mcpSrv)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, addr string, disableStreaming bool, instrProvider *instrumentation.Provider, logger *slog.Logger) error {
	httpServer := server.NewHTTPServer(mcpSrv, disableStreaming)

	healthChecker := server.NewHealthChecker(serverContext, version)
	httpServer.SetHealthChecker(healthChecker)

	// Set up HTTP instrumentation for metrics
	if instrProvider != nil && instrProvider.Enabled() {
		httpServer.SetMetrics(instrProvider.Metrics())
	}

	ready := make(chan net.Addr, 1)
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.StartWithReadySignal(addr, ready); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case bound := <-ready:
		healthChecker.SetReady(true)
		logger.Info("streamable HTTP server listening",
			slog.String("addr", bound.String()),
			slog.String("endpoint", server.MCPEndpointPath))
	case err := <-serverDone:
		return fmt.Errorf("HTTP server stopped with error: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
