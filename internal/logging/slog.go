package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation  = "operation"
	KeyTool       = "tool"
	KeyBackend    = "backend"
	KeyCalendarID = "calendar_id"
	KeyEventID    = "event_id"
	KeyCallID     = "call_id"
	KeyDuration   = "duration"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Options controls how NewLogger builds the process logger.
type Options struct {
	// Debug lowers the level to slog.LevelDebug.
	Debug bool

	// JSON selects the JSON handler instead of the text handler.
	JSON bool
}

// NewLogger returns a slog.Logger writing to w.
// The stdio transport owns stdout, so callers pass os.Stderr there.
func NewLogger(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithBackend returns a logger with the calendar backend attribute set.
func WithBackend(logger *slog.Logger, backend string) *slog.Logger {
	return logger.With(slog.String(KeyBackend, backend))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// CalendarID returns a slog attribute for a calendar identifier.
// Calendar IDs are frequently email addresses, so anything that looks like
// one is anonymized.
func CalendarID(id string) slog.Attr {
	if strings.Contains(id, "@") {
		return slog.String(KeyCalendarID, AnonymizeEmail(id))
	}
	return slog.String(KeyCalendarID, id)
}

// EventID returns a slog attribute for an event identifier.
func EventID(id string) slog.Attr {
	return slog.String(KeyEventID, id)
}

// CallID returns a slog attribute for a tool call correlation identifier.
func CallID(id string) slog.Attr {
	return slog.String(KeyCallID, id)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email for logging purposes.
// This allows correlation of log entries without exposing attendee addresses.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// ExtractDomain extracts the domain part from an email address.
// This is useful for lower-cardinality logging where the full email would
// create too many unique values.
func ExtractDomain(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
