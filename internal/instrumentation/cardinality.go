package instrumentation

import "strings"

// CalendarLabel reduces a calendar id to a low-cardinality label.
//
//	CalendarLabel("")                                    // "primary"
//	CalendarLabel("primary")                             // "primary"
//	CalendarLabel("jane@example.com")                    // "example.com"
//	CalendarLabel("abc123@group.calendar.google.com")    // "group.calendar.google.com"
//	CalendarLabel("something-else")                      // "other"
func CalendarLabel(calendarID string) string {
	if calendarID == "" || calendarID == "primary" {
		return "primary"
	}

	at := strings.LastIndex(calendarID, "@")
	if at <= 0 || at == len(calendarID)-1 {
		return "other"
	}
	return strings.ToLower(calendarID[at+1:])
}

// Calendar API operations.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationInsert = "insert"
	OperationUpdate = "update"
	OperationDelete = "delete"
)
