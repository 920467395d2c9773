// Package calendar_tools exposes Google Calendar event operations as MCP tools.
//
// Four tools are provided: google_calendar_create_event,
// google_calendar_reschedule_event, google_calendar_delete_event and
// google_calendar_list_events. Raw arguments are parsed into typed calendar
// arguments, passed to a calendar.Calendar backend, and the outcome is turned
// into a text result. Every failure, including an unknown tool name, is
// reported as a result with isError set rather than a protocol error.
package calendar_tools
