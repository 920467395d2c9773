package calendar_tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/XueTang422/calendar-mcp/internal/calendar"
	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
)

type listingOutput struct {
	Summary       string           `json:"summary"`
	Events        []calendar.Event `json:"events"`
	NextPageToken string           `json:"nextPageToken"`
}

func newMockDispatcher() *Dispatcher {
	return NewDispatcher(calendar.NewMockClient(), WithBackend(instrumentation.BackendMock))
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	assert.Equal(t, "text", tc.Type)
	return tc.Text
}

func call(t *testing.T, d *Dispatcher, name string, raw string) (string, bool) {
	t.Helper()
	var args any
	if raw != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &args))
	}
	result := d.Call(context.Background(), name, args)
	return textOf(t, result), result.IsError
}

func createMeeting(t *testing.T, d *Dispatcher, raw string) calendar.Event {
	t.Helper()
	text, isErr := call(t, d, ToolCreateEvent, raw)
	require.False(t, isErr, text)
	var ev calendar.Event
	require.NoError(t, json.Unmarshal([]byte(text), &ev))
	return ev
}

func TestDispatcher_MinimalArguments(t *testing.T) {
	d := newMockDispatcher()

	tests := []struct {
		tool string
		args string
	}{
		{ToolCreateEvent, `{"summary": "x", "start": {"dateTime": "2024-08-25T15:00:00Z"}, "end": {"dateTime": "2024-08-25T16:00:00Z"}}`},
		{ToolRescheduleEvent, `{"eventId": "test-event-1", "start": {"dateTime": "2024-08-26T15:00:00Z"}, "end": {"dateTime": "2024-08-26T16:00:00Z"}}`},
		{ToolListEvents, ``},
		{ToolListEvents, `{}`},
		{ToolDeleteEvent, `{"eventId": "test-event-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			text, isErr := call(t, d, tt.tool, tt.args)
			assert.False(t, isErr, text)
		})
	}
}

func TestDispatcher_MissingRequiredFieldNamesTool(t *testing.T) {
	d := newMockDispatcher()

	tests := []struct {
		tool       string
		args       string
		wantPrefix string
	}{
		{ToolCreateEvent, `{"start": {"dateTime": "a"}, "end": {"dateTime": "b"}}`, "Error creating calendar event: "},
		{ToolRescheduleEvent, `{"eventId": "test-event-1", "end": {"dateTime": "b"}}`, "Error rescheduling calendar event: "},
		{ToolDeleteEvent, `{}`, "Error deleting calendar event: "},
		{ToolDeleteEvent, ``, "Error deleting calendar event: "},
		{ToolListEvents, `{"maxResults": "all"}`, "Error listing calendar events: "},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			text, isErr := call(t, d, tt.tool, tt.args)
			assert.True(t, isErr)
			assert.True(t, strings.HasPrefix(text, tt.wantPrefix), text)
			assert.Contains(t, text, tt.tool)
		})
	}
}

func TestDispatcher_UnknownTool(t *testing.T) {
	d := newMockDispatcher()

	for _, name := range []string{"google_calendar_get_event", "", "GOOGLE_CALENDAR_LIST_EVENTS"} {
		t.Run(name, func(t *testing.T) {
			result := d.Call(context.Background(), name, map[string]any{})
			assert.True(t, result.IsError)
			assert.Equal(t, "Unknown tool: "+name, textOf(t, result))
		})
	}
}

func TestDispatcher_ListIsIdempotent(t *testing.T) {
	d := newMockDispatcher()
	args := `{"q": "meeting", "maxResults": 10}`

	first, isErr := call(t, d, ToolListEvents, args)
	require.False(t, isErr)
	second, _ := call(t, d, ToolListEvents, args)
	assert.Equal(t, first, second)
}

func TestDispatcher_CreateThenList(t *testing.T) {
	d := newMockDispatcher()

	created := createMeeting(t, d, `{
		"summary": "Round Trip",
		"start": {"dateTime": "2024-09-01T09:00:00Z"},
		"end": {"dateTime": "2024-09-01T09:30:00Z"}
	}`)

	text, isErr := call(t, d, ToolListEvents, `{"q": "round trip"}`)
	require.False(t, isErr, text)

	var out listingOutput
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	require.Len(t, out.Events, 1)
	assert.Equal(t, "Found 1 event(s)", out.Summary)

	got := out.Events[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Round Trip", got.Summary)
	assert.Equal(t, &calendar.EventTime{DateTime: "2024-09-01T09:00:00Z", TimeZone: "UTC"}, got.Start)
	assert.Equal(t, &calendar.EventTime{DateTime: "2024-09-01T09:30:00Z", TimeZone: "UTC"}, got.End)
}

func TestDispatcher_ReschedulePreservesFields(t *testing.T) {
	d := newMockDispatcher()

	created := createMeeting(t, d, `{
		"summary": "Design review",
		"location": "Room A",
		"attendees": [{"email": "a@example.com"}],
		"start": {"dateTime": "2024-09-02T10:00:00Z"},
		"end": {"dateTime": "2024-09-02T11:00:00Z"}
	}`)

	text, isErr := call(t, d, ToolRescheduleEvent, `{
		"eventId": "`+created.ID+`",
		"start": {"dateTime": "2024-09-03T14:00:00", "timeZone": "Europe/Berlin"},
		"end": {"dateTime": "2024-09-03T15:00:00"}
	}`)
	require.False(t, isErr, text)

	var moved calendar.Event
	require.NoError(t, json.Unmarshal([]byte(text), &moved))
	assert.Equal(t, "Room A", moved.Location)
	assert.Equal(t, "Design review", moved.Summary)
	assert.Equal(t, created.Attendees, moved.Attendees)
	assert.Equal(t, &calendar.EventTime{DateTime: "2024-09-03T14:00:00", TimeZone: "Europe/Berlin"}, moved.Start)
	assert.Equal(t, "UTC", moved.End.TimeZone)
}

func TestDispatcher_Delete(t *testing.T) {
	d := newMockDispatcher()

	text, isErr := call(t, d, ToolDeleteEvent, `{"eventId": "does-not-exist"}`)
	assert.True(t, isErr)
	assert.Equal(t, "Error deleting calendar event: Event with ID does-not-exist not found", text)

	text, isErr = call(t, d, ToolDeleteEvent, `{"eventId": "test-event-1"}`)
	require.False(t, isErr, text)
	assert.Equal(t, "Event test-event-1 has been successfully deleted from calendar primary", text)

	text, _ = call(t, d, ToolListEvents, `{}`)
	assert.Equal(t, "No events found matching the criteria", text)
}

func TestDispatcher_RescheduleMissingEvent(t *testing.T) {
	d := newMockDispatcher()

	text, isErr := call(t, d, ToolRescheduleEvent, `{
		"eventId": "ghost",
		"start": {"dateTime": "2024-09-03T14:00:00Z"},
		"end": {"dateTime": "2024-09-03T15:00:00Z"}
	}`)
	assert.True(t, isErr)
	assert.Equal(t, "Error rescheduling calendar event: Event with ID ghost not found", text)
}

func TestDispatcher_CreateScenario(t *testing.T) {
	d := newMockDispatcher()

	ev := createMeeting(t, d, `{
		"summary": "Test Meeting",
		"start": {"dateTime": "2024-08-25T15:00:00Z"},
		"end": {"dateTime": "2024-08-25T16:00:00Z"}
	}`)

	assert.Equal(t, "Test Meeting", ev.Summary)
	assert.Equal(t, "confirmed", ev.Status)
	assert.NotEmpty(t, ev.ID)
}

func TestDispatcher_SearchScenario(t *testing.T) {
	d := newMockDispatcher()

	text, isErr := call(t, d, ToolListEvents, `{"q": "test"}`)
	require.False(t, isErr, text)

	var out listingOutput
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	require.Len(t, out.Events, 1)
	assert.Equal(t, "Existing Test Meeting", out.Events[0].Summary)

	text, isErr = call(t, d, ToolListEvents, `{"q": "zzz"}`)
	assert.False(t, isErr)
	assert.Equal(t, "No events found matching the criteria", text)
}

func TestDispatcher_LooseOptionalFields(t *testing.T) {
	d := newMockDispatcher()

	text, isErr := call(t, d, ToolListEvents, `{"maxResults": "10"}`)
	require.False(t, isErr, text)
	assert.Contains(t, text, `"summary": "Found 1 event(s)"`)

	ev := createMeeting(t, d, `{
		"summary": "Numbered room",
		"start": {"dateTime": "2024-08-26T09:00:00Z"},
		"end": {"dateTime": "2024-08-26T10:00:00Z"},
		"location": 12
	}`)
	assert.Equal(t, "12", ev.Location)
}

func TestDispatcher_DateOnlyBounds(t *testing.T) {
	d := newMockDispatcher()

	text, isErr := call(t, d, ToolListEvents, `{"timeMin": "2024-08-25"}`)
	require.False(t, isErr, text)
	assert.Equal(t, "No events found matching the criteria", text)

	text, isErr = call(t, d, ToolListEvents, `{"timeMin": "2024-08-24", "timeMax": "2024-08-25"}`)
	require.False(t, isErr, text)
	assert.Contains(t, text, `"summary": "Found 1 event(s)"`)
}

type panickingCalendar struct {
	calendar.Calendar
}

func (panickingCalendar) ListEvents(context.Context, calendar.ListEventsArgs) (*calendar.EventList, error) {
	panic("backend exploded")
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	d := NewDispatcher(panickingCalendar{})

	result := d.Call(context.Background(), ToolListEvents, nil)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error listing calendar events: backend exploded", textOf(t, result))
}

func TestDispatcher_RecordsListedEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)

	d := NewDispatcher(calendar.NewMockClient(), WithBackend(instrumentation.BackendMock), WithMetrics(metrics))
	_, isErr := call(t, d, ToolListEvents, `{}`)
	require.False(t, isErr)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "calendar_events_listed" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[int64])
			require.True(t, ok, "got %T", m.Data)
			require.Len(t, hist.DataPoints, 1)
			assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
			assert.Equal(t, int64(1), hist.DataPoints[0].Sum)
			found = true
		}
	}
	assert.True(t, found, "calendar_events_listed not recorded")
}
