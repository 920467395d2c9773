package calendar_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names exposed to MCP clients.
const (
	ToolCreateEvent     = "google_calendar_create_event"
	ToolRescheduleEvent = "google_calendar_reschedule_event"
	ToolDeleteEvent     = "google_calendar_delete_event"
	ToolListEvents      = "google_calendar_list_events"
)

// KnownTools lists the tool names in registration order.
var KnownTools = []string{
	ToolCreateEvent,
	ToolRescheduleEvent,
	ToolDeleteEvent,
	ToolListEvents,
}

// IsKnownTool reports whether name is one of the calendar tools.
func IsKnownTool(name string) bool {
	for _, known := range KnownTools {
		if known == name {
			return true
		}
	}
	return false
}

// Definitions returns the descriptors for every calendar tool, in the order
// they are listed to clients.
func Definitions() []mcp.Tool {
	return []mcp.Tool{
		createEventTool(),
		rescheduleEventTool(),
		deleteEventTool(),
		listEventsTool(),
	}
}

func eventTimeSchema(dateTimeDescription string) map[string]any {
	return map[string]any{
		"dateTime": map[string]any{
			"type":        "string",
			"description": dateTimeDescription,
		},
		"timeZone": map[string]any{
			"type":        "string",
			"description": "Time zone (e.g., 'America/New_York'). Defaults to UTC",
		},
	}
}

// requireNested marks fields as required inside an object property that was
// already added to the tool. mcp.Required on the object itself only lists it
// in the top-level required array.
func requireNested(property string, fields ...string) mcp.ToolOption {
	return func(t *mcp.Tool) {
		if schema, ok := t.InputSchema.Properties[property].(map[string]any); ok {
			schema["required"] = fields
		}
	}
}

func createEventTool() mcp.Tool {
	return mcp.NewTool(ToolCreateEvent,
		mcp.WithDescription("Creates a new event in Google Calendar. Requires summary, start time, and end time. Optionally accepts description, location, attendees, and calendar ID."),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Title/summary of the event"),
		),
		mcp.WithString("description",
			mcp.Description("Detailed description of the event"),
		),
		mcp.WithObject("start",
			mcp.Required(),
			mcp.Properties(eventTimeSchema("Start date and time in ISO 8601 format (e.g., '2024-01-15T10:00:00')")),
		),
		mcp.WithObject("end",
			mcp.Required(),
			mcp.Properties(eventTimeSchema("End date and time in ISO 8601 format (e.g., '2024-01-15T11:00:00')")),
		),
		requireNested("start", "dateTime"),
		requireNested("end", "dateTime"),
		mcp.WithArray("attendees",
			mcp.Description("List of attendees to invite"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"email": map[string]any{
						"type":        "string",
						"description": "Email address of the attendee",
					},
					"displayName": map[string]any{
						"type":        "string",
						"description": "Display name of the attendee",
					},
				},
				"required": []string{"email"},
			}),
		),
		mcp.WithString("location",
			mcp.Description("Location of the event"),
		),
		mcp.WithString("calendarId",
			mcp.Description("ID of the calendar to create the event in. Defaults to 'primary'"),
		),
		mcp.WithDestructiveHintAnnotation(false),
	)
}

func rescheduleEventTool() mcp.Tool {
	return mcp.NewTool(ToolRescheduleEvent,
		mcp.WithDescription("Reschedules an existing calendar event by updating its start and end times. Requires the event ID and new start/end times."),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event to reschedule"),
		),
		mcp.WithObject("start",
			mcp.Required(),
			mcp.Properties(eventTimeSchema("New start date and time in ISO 8601 format (e.g., '2024-01-15T10:00:00')")),
		),
		mcp.WithObject("end",
			mcp.Required(),
			mcp.Properties(eventTimeSchema("New end date and time in ISO 8601 format (e.g., '2024-01-15T11:00:00')")),
		),
		requireNested("start", "dateTime"),
		requireNested("end", "dateTime"),
		mcp.WithString("calendarId",
			mcp.Description("ID of the calendar containing the event. Defaults to 'primary'"),
		),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func deleteEventTool() mcp.Tool {
	return mcp.NewTool(ToolDeleteEvent,
		mcp.WithDescription("Deletes an existing calendar event. Requires the event ID."),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("ID of the event to delete"),
		),
		mcp.WithString("calendarId",
			mcp.Description("ID of the calendar containing the event. Defaults to 'primary'"),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
}

func listEventsTool() mcp.Tool {
	return mcp.NewTool(ToolListEvents,
		mcp.WithDescription("Lists calendar events with optional filtering by time range, search query, and calendar ID."),
		mcp.WithString("calendarId",
			mcp.Description("ID of the calendar to list events from. Defaults to 'primary'"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Lower bound (inclusive) for events to list in ISO 8601 format (e.g., '2024-01-15T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Upper bound (exclusive) for events to list in ISO 8601 format (e.g., '2024-01-16T00:00:00Z')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of events to return (1-2500). Defaults to 50"),
		),
		mcp.WithString("q",
			mcp.Description("Free text search terms to find events that match"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
