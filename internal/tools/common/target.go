package common

// DefaultCalendarID is assumed when a call names no calendar.
const DefaultCalendarID = "primary"

// TargetFromArgs extracts the calendar and event a tool call addresses.
// Missing or non-string values fall back to the primary calendar and an
// empty event id.
func TargetFromArgs(args map[string]any) (calendarID, eventID string) {
	calendarID = DefaultCalendarID
	if v, ok := args["calendarId"].(string); ok && v != "" {
		calendarID = v
	}
	if v, ok := args["eventId"].(string); ok {
		eventID = v
	}
	return calendarID, eventID
}
