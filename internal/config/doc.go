// Package config loads the calendar MCP server configuration from the
// environment, optionally seeded from .env files.
package config
