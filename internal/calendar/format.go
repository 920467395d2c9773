package calendar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FormatEvent renders a created or rescheduled event as indented JSON.
func FormatEvent(ev *Event) string {
	return indentJSON(ev)
}

// FormatDeleted is the confirmation returned by the delete tool.
func FormatDeleted(eventID, calendarID string) string {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return fmt.Sprintf("Event %s has been successfully deleted from calendar %s", eventID, calendarID)
}

type listing struct {
	Summary       string  `json:"summary"`
	Events        []Event `json:"events"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// FormatEventList renders a listing. Events without a summary are shown as
// "No title".
func FormatEventList(list *EventList) string {
	if list == nil || len(list.Events) == 0 {
		return "No events found matching the criteria"
	}

	events := make([]Event, len(list.Events))
	for i, ev := range list.Events {
		if ev.Summary == "" {
			ev.Summary = untitledSummary
		}
		if ev.Start == nil {
			ev.Start = &EventTime{}
		}
		if ev.End == nil {
			ev.End = &EventTime{}
		}
		events[i] = ev
	}

	return indentJSON(listing{
		Summary:       fmt.Sprintf("Found %d event(s)", len(events)),
		Events:        events,
		NextPageToken: list.NextPageToken,
	})
}

func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
