package calendar_tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/XueTang422/calendar-mcp/internal/calendar"
)

const (
	reasonNoArguments = "no arguments provided"
	reasonNotObject   = "arguments must be an object"
	reasonRequired    = "is required"
	reasonString      = "must be a string"
	reasonObject      = "must be an object"
	reasonArray       = "must be an array"
)

// ValidationError reports tool arguments that do not satisfy the structural
// contract of a tool. Field is empty when the arguments as a whole are
// rejected.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := "Invalid arguments for " + e.Tool
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: field %q %s", msg, e.Field, e.Reason)
	case e.Reason != "":
		return msg + ": " + e.Reason
	default:
		return msg
	}
}

// ParseCreateEventArgs converts raw tool arguments into create arguments.
// Defaults are not applied here; the calendar backends do that.
func ParseCreateEventArgs(raw any) (calendar.CreateEventArgs, error) {
	p := parser{tool: ToolCreateEvent}
	m, err := p.object(raw, false)
	if err != nil {
		return calendar.CreateEventArgs{}, err
	}

	var args calendar.CreateEventArgs
	if args.Summary, err = p.requiredString(m, "summary"); err != nil {
		return calendar.CreateEventArgs{}, err
	}
	args.Description = optionalString(m, "description")
	if args.Start, err = p.eventTime(m, "start"); err != nil {
		return calendar.CreateEventArgs{}, err
	}
	if args.End, err = p.eventTime(m, "end"); err != nil {
		return calendar.CreateEventArgs{}, err
	}
	if args.Attendees, err = p.attendees(m); err != nil {
		return calendar.CreateEventArgs{}, err
	}
	args.Location = optionalString(m, "location")
	args.CalendarID = optionalString(m, "calendarId")
	return args, nil
}

// ParseRescheduleEventArgs converts raw tool arguments into reschedule arguments.
func ParseRescheduleEventArgs(raw any) (calendar.RescheduleEventArgs, error) {
	p := parser{tool: ToolRescheduleEvent}
	m, err := p.object(raw, false)
	if err != nil {
		return calendar.RescheduleEventArgs{}, err
	}

	var args calendar.RescheduleEventArgs
	if args.EventID, err = p.requiredString(m, "eventId"); err != nil {
		return calendar.RescheduleEventArgs{}, err
	}
	if args.Start, err = p.eventTime(m, "start"); err != nil {
		return calendar.RescheduleEventArgs{}, err
	}
	if args.End, err = p.eventTime(m, "end"); err != nil {
		return calendar.RescheduleEventArgs{}, err
	}
	args.CalendarID = optionalString(m, "calendarId")
	return args, nil
}

// ParseDeleteEventArgs converts raw tool arguments into delete arguments.
func ParseDeleteEventArgs(raw any) (calendar.DeleteEventArgs, error) {
	p := parser{tool: ToolDeleteEvent}
	m, err := p.object(raw, false)
	if err != nil {
		return calendar.DeleteEventArgs{}, err
	}

	var args calendar.DeleteEventArgs
	if args.EventID, err = p.requiredString(m, "eventId"); err != nil {
		return calendar.DeleteEventArgs{}, err
	}
	args.CalendarID = optionalString(m, "calendarId")
	return args, nil
}

// ParseListEventsArgs converts raw tool arguments into list arguments. Every
// field is optional and missing arguments are accepted.
func ParseListEventsArgs(raw any) (calendar.ListEventsArgs, error) {
	p := parser{tool: ToolListEvents}
	m, err := p.object(raw, true)
	if err != nil {
		return calendar.ListEventsArgs{}, err
	}

	var args calendar.ListEventsArgs
	args.CalendarID = optionalString(m, "calendarId")
	args.TimeMin = optionalString(m, "timeMin")
	args.TimeMax = optionalString(m, "timeMax")
	args.MaxResults = optionalInt(m, "maxResults")
	args.Q = optionalString(m, "q")
	return args, nil
}

type parser struct {
	tool string
}

func (p parser) fail(field, reason string) error {
	return &ValidationError{Tool: p.tool, Field: field, Reason: reason}
}

func (p parser) object(raw any, allowEmpty bool) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		if allowEmpty {
			return map[string]any{}, nil
		}
		return nil, p.fail("", reasonNoArguments)
	case map[string]any:
		return v, nil
	default:
		return nil, p.fail("", reasonNotObject)
	}
}

func (p parser) requiredString(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", p.fail(key, reasonRequired)
	}
	s, ok := v.(string)
	if !ok {
		return "", p.fail(key, reasonString)
	}
	return s, nil
}

// optionalString reads key from m. Only required fields are type checked:
// numbers and booleans are stringified, null and composite values read as
// absent, and the backend decides what to do with the result.
func optionalString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (p parser) eventTime(m map[string]any, key string) (calendar.EventTime, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return calendar.EventTime{}, p.fail(key, reasonRequired)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return calendar.EventTime{}, p.fail(key, reasonObject)
	}

	var t calendar.EventTime
	dt, ok := obj["dateTime"]
	if !ok || dt == nil {
		return calendar.EventTime{}, p.fail(key+".dateTime", reasonRequired)
	}
	if t.DateTime, ok = dt.(string); !ok {
		return calendar.EventTime{}, p.fail(key+".dateTime", reasonString)
	}
	t.TimeZone = optionalString(obj, "timeZone")
	return t, nil
}

func (p parser) attendees(m map[string]any) ([]calendar.Attendee, error) {
	v, ok := m["attendees"]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, p.fail("attendees", reasonArray)
	}

	attendees := make([]calendar.Attendee, 0, len(items))
	for i, item := range items {
		path := "attendees[" + strconv.Itoa(i) + "]"
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, p.fail(path, reasonObject)
		}

		email, ok := obj["email"]
		if !ok || email == nil {
			return nil, p.fail(path+".email", reasonRequired)
		}
		var a calendar.Attendee
		if a.Email, ok = email.(string); !ok {
			return nil, p.fail(path+".email", reasonString)
		}
		a.DisplayName = optionalString(obj, "displayName")
		a.ResponseStatus = optionalString(obj, "responseStatus")
		attendees = append(attendees, a)
	}
	return attendees, nil
}

// optionalInt accepts any JSON number or a numeric string. Fractions are
// truncated and ranges are left to the backend; anything else reads as
// absent so the backend default applies.
func optionalInt(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(f)
		}
	}
	return 0
}
