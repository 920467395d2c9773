// Package common provides shared helpers for the MCP tool packages: the
// instrumented handler wrapper that traces, measures and audits every tool
// call, and extraction of the calendar and event a call targets.
package common
