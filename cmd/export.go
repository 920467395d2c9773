package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/XueTang422/calendar-mcp/internal/calendar"
	"github.com/XueTang422/calendar-mcp/internal/config"
	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
	"github.com/XueTang422/calendar-mcp/internal/logging"
)

type exportOptions struct {
	output   string
	args     calendar.ListEventsArgs
	mock     bool
	debug    bool
	envFiles []string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export calendar events to an iCalendar file",
		Long: `List events with the same filters as google_calendar_list_events and
write them as an iCalendar (.ics) document.

Times are RFC 3339 timestamps, for example 2024-08-25T00:00:00Z.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "Output file, - for stdout")
	cmd.Flags().StringVar(&opts.args.CalendarID, "calendar-id", calendar.DefaultCalendarID, "Calendar to export")
	cmd.Flags().StringVar(&opts.args.TimeMin, "time-min", "", "Only events starting at or after this time")
	cmd.Flags().StringVar(&opts.args.TimeMax, "time-max", "", "Only events starting before this time")
	cmd.Flags().StringVar(&opts.args.Q, "q", "", "Free text search")
	cmd.Flags().IntVar(&opts.args.MaxResults, "max-results", calendar.DefaultMaxResults, "Maximum number of events")
	cmd.Flags().BoolVar(&opts.mock, "mock", false, "Export from the in-memory test calendar")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringArrayVar(&opts.envFiles, "env-file", nil, "Load environment variables from this dotenv file (repeatable, default: .env)")

	return cmd
}

func runExport(ctx context.Context, stdout io.Writer, opts exportOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := checkTimestamp("time-min", opts.args.TimeMin); err != nil {
		return err
	}
	if err := checkTimestamp("time-max", opts.args.TimeMax); err != nil {
		return err
	}

	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(os.Stderr, logging.Options{Debug: opts.debug, JSON: cfg.Production})

	b, err := newBackend(cfg, opts.mock, nil, logger)
	if err != nil {
		return err
	}

	list, err := b.cal.ListEvents(ctx, opts.args.WithDefaults())
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	// Encode first so an empty result never leaves a file behind.
	var buf bytes.Buffer
	if err := calendar.EncodeICS(&buf, list); err != nil {
		if errors.Is(err, calendar.ErrNoEvents) {
			return fmt.Errorf("no events found matching the criteria")
		}
		return fmt.Errorf("failed to encode calendar: %w", err)
	}

	if err := writeOutput(stdout, opts.output, buf.Bytes()); err != nil {
		return err
	}

	logger.Info("exported events",
		logging.Operation(instrumentation.OperationList),
		logging.CalendarID(opts.args.CalendarID),
		"count", len(list.Events),
		"output", opts.output)
	return nil
}

// writeOutput writes data to stdout when path is empty or "-", otherwise to
// the file at path.
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write calendar: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

func checkTimestamp(flag, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return fmt.Errorf("invalid --%s %q: expected an RFC 3339 timestamp", flag, value)
	}
	return nil
}
