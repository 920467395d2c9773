// Package cmd implements the command-line interface for calendar-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the Google Calendar tools
//   - export: Write calendar events to an iCalendar (.ics) file
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
