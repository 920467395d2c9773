// Package logging provides structured logging utilities for the calendar MCP server.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Logger construction for text (development) and JSON (production) output
//   - Consistent attribute naming for tools, calendars and events
//   - Anonymization of email-shaped identifiers (calendar IDs, attendees)
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithTool(slog.Default(), "google_calendar_list_events")
//	logger.Info("listing events",
//	    logging.CalendarID("primary"),
//	    logging.Status("success"))
//
// # Security Considerations
//
//   - Email-shaped calendar IDs are hashed before they reach log output
//   - Refresh tokens are never logged directly, only their length
package logging
