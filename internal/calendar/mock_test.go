package calendar

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_Seed(t *testing.T) {
	list, err := NewMockClient().ListEvents(context.Background(), ListEventsArgs{})
	require.NoError(t, err)
	require.Len(t, list.Events, 1)

	ev := list.Events[0]
	assert.Equal(t, "test-event-1", ev.ID)
	assert.Equal(t, "Existing Test Meeting", ev.Summary)
	assert.Equal(t, "This is a test event", ev.Description)
	assert.Equal(t, "Test Location", ev.Location)
	assert.Equal(t, "confirmed", ev.Status)
	assert.Equal(t, "https://calendar.google.com/event?eid=test-event-1", ev.HTMLLink)
	assert.Equal(t, &EventTime{DateTime: "2024-08-24T10:00:00Z", TimeZone: "UTC"}, ev.Start)
	assert.Equal(t, []Attendee{{Email: "test@example.com", DisplayName: "Test User", ResponseStatus: "accepted"}}, ev.Attendees)
	assert.Empty(t, list.NextPageToken)
}

func TestMockClient_CreateEvent(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient()

	ev, err := m.CreateEvent(ctx, CreateEventArgs{
		Summary:   "Planning",
		Start:     EventTime{DateTime: "2024-08-25T15:00:00Z"},
		End:       EventTime{DateTime: "2024-08-25T16:00:00Z", TimeZone: "Europe/Berlin"},
		Attendees: []Attendee{{Email: "not-an-email"}, {Email: "bob@example.com", DisplayName: "Bob"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "mock-event-1", ev.ID)
	assert.Equal(t, "confirmed", ev.Status)
	assert.Equal(t, "https://calendar.google.com/event?eid=mock-event-1", ev.HTMLLink)
	assert.Equal(t, "UTC", ev.Start.TimeZone)
	assert.Equal(t, "Europe/Berlin", ev.End.TimeZone)
	assert.Equal(t, []Attendee{
		{Email: "not-an-email", ResponseStatus: "needsAction"},
		{Email: "bob@example.com", DisplayName: "Bob", ResponseStatus: "needsAction"},
	}, ev.Attendees)

	second, err := m.CreateEvent(ctx, CreateEventArgs{Summary: "Second"})
	require.NoError(t, err)
	assert.Equal(t, "mock-event-2", second.ID)
}

func TestMockClient_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient()

	ev, err := m.CreateEvent(ctx, CreateEventArgs{Summary: "Original", Start: EventTime{DateTime: "2024-09-01T09:00:00Z"}})
	require.NoError(t, err)
	ev.Summary = "mutated"
	ev.Start.DateTime = "mutated"

	list, err := m.ListEvents(ctx, ListEventsArgs{Q: "original"})
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	assert.Equal(t, "2024-09-01T09:00:00Z", list.Events[0].Start.DateTime)
}

func TestMockClient_RescheduleEvent(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient()

	created, err := m.CreateEvent(ctx, CreateEventArgs{
		Summary:  "Sync",
		Location: "Room A",
		Start:    EventTime{DateTime: "2024-08-25T15:00:00Z"},
		End:      EventTime{DateTime: "2024-08-25T16:00:00Z"},
	})
	require.NoError(t, err)

	moved, err := m.RescheduleEvent(ctx, RescheduleEventArgs{
		EventID: created.ID,
		Start:   EventTime{DateTime: "2024-08-26T15:00:00Z"},
		End:     EventTime{DateTime: "2024-08-26T16:00:00Z", TimeZone: "America/New_York"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Room A", moved.Location)
	assert.Equal(t, "Sync", moved.Summary)
	assert.Equal(t, &EventTime{DateTime: "2024-08-26T15:00:00Z", TimeZone: "UTC"}, moved.Start)
	assert.Equal(t, &EventTime{DateTime: "2024-08-26T16:00:00Z", TimeZone: "America/New_York"}, moved.End)
}

func TestMockClient_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient()

	_, err := m.RescheduleEvent(ctx, RescheduleEventArgs{EventID: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Equal(t, "Event with ID nope not found", err.Error())

	err = m.DeleteEvent(ctx, DeleteEventArgs{EventID: "missing-id"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Contains(t, err.Error(), "missing-id")
}

func TestMockClient_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient()

	require.NoError(t, m.DeleteEvent(ctx, DeleteEventArgs{EventID: "test-event-1"}))

	list, err := m.ListEvents(ctx, ListEventsArgs{})
	require.NoError(t, err)
	assert.Empty(t, list.Events)

	assert.ErrorIs(t, m.DeleteEvent(ctx, DeleteEventArgs{EventID: "test-event-1"}), ErrEventNotFound)
}

func TestMockClient_ListEvents_Filters(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient()

	_, err := m.CreateEvent(ctx, CreateEventArgs{
		Summary:     "Dentist",
		Description: "Checkup",
		Location:    "Main Street Clinic",
		Start:       EventTime{DateTime: "2024-08-24T08:00:00Z"},
		End:         EventTime{DateTime: "2024-08-24T09:00:00Z"},
	})
	require.NoError(t, err)
	_, err = m.CreateEvent(ctx, CreateEventArgs{
		Summary: "Retro",
		Start:   EventTime{DateTime: "2024-08-30T14:00:00Z"},
		End:     EventTime{DateTime: "2024-08-30T15:00:00Z"},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		args ListEventsArgs
		want []string
	}{
		{
			name: "no filters, ordered by start",
			args: ListEventsArgs{},
			want: []string{"mock-event-1", "test-event-1", "mock-event-2"},
		},
		{
			name: "query matches summary case-insensitively",
			args: ListEventsArgs{Q: "TEST"},
			want: []string{"test-event-1"},
		},
		{
			name: "query matches description",
			args: ListEventsArgs{Q: "checkup"},
			want: []string{"mock-event-1"},
		},
		{
			name: "query matches location",
			args: ListEventsArgs{Q: "clinic"},
			want: []string{"mock-event-1"},
		},
		{
			name: "query without match",
			args: ListEventsArgs{Q: "zzz"},
			want: nil,
		},
		{
			name: "timeMin is inclusive",
			args: ListEventsArgs{TimeMin: "2024-08-24T10:00:00Z"},
			want: []string{"test-event-1", "mock-event-2"},
		},
		{
			name: "timeMax compares start only",
			args: ListEventsArgs{TimeMax: "2024-08-24T10:00:00Z"},
			want: []string{"mock-event-1", "test-event-1"},
		},
		{
			name: "offset timestamps",
			args: ListEventsArgs{TimeMin: "2024-08-24T11:00:00+02:00", TimeMax: "2024-08-24T12:00:00+02:00"},
			want: []string{"test-event-1"},
		},
		{
			name: "date-only timeMin is UTC midnight",
			args: ListEventsArgs{TimeMin: "2024-08-25"},
			want: []string{"mock-event-2"},
		},
		{
			name: "date-only timeMax",
			args: ListEventsArgs{TimeMax: "2024-08-25"},
			want: []string{"mock-event-1", "test-event-1"},
		},
		{
			name: "unparseable bounds never exclude",
			args: ListEventsArgs{TimeMin: "next tuesday"},
			want: []string{"mock-event-1", "test-event-1", "mock-event-2"},
		},
		{
			name: "calendar id is ignored",
			args: ListEventsArgs{CalendarID: "someone@example.com", Q: "retro"},
			want: []string{"mock-event-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := m.ListEvents(ctx, tt.args)
			require.NoError(t, err)

			var got []string
			for _, ev := range list.Events {
				got = append(got, ev.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMockClient_ListEvents_AllDayEventsPassTimeFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient()

	m.mu.Lock()
	m.events["all-day"] = &Event{
		ID:      "all-day",
		Summary: "Offsite",
		Start:   &EventTime{Date: "2030-01-01"},
		End:     &EventTime{Date: "2030-01-02"},
	}
	m.mu.Unlock()

	list, err := m.ListEvents(ctx, ListEventsArgs{TimeMin: "2024-01-01T00:00:00Z", TimeMax: "2024-01-02T00:00:00Z"})
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	assert.Equal(t, "all-day", list.Events[0].ID)
}

func TestMockClient_ListEvents_MaxResults(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient()

	for i := 0; i < 3; i++ {
		_, err := m.CreateEvent(ctx, CreateEventArgs{
			Summary: fmt.Sprintf("Event %d", i),
			Start:   EventTime{DateTime: fmt.Sprintf("2024-09-0%dT10:00:00Z", i+1)},
		})
		require.NoError(t, err)
	}

	list, err := m.ListEvents(ctx, ListEventsArgs{MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, list.Events, 2)
	assert.Equal(t, "mock-next-page-token", list.NextPageToken)

	list, err = m.ListEvents(ctx, ListEventsArgs{MaxResults: 4})
	require.NoError(t, err)
	assert.Len(t, list.Events, 4)
	assert.Empty(t, list.NextPageToken)
}

func TestMockClient_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	m := NewMockClient()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = m.CreateEvent(ctx, CreateEventArgs{Summary: "parallel"})
		}()
		go func() {
			defer wg.Done()
			_, _ = m.ListEvents(ctx, ListEventsArgs{Q: "parallel"})
		}()
	}
	wg.Wait()

	list, err := m.ListEvents(ctx, ListEventsArgs{Q: "parallel"})
	require.NoError(t, err)
	assert.Len(t, list.Events, 20)
}
