package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	mockNextPageToken = "mock-next-page-token"
	mockLinkPrefix    = "https://calendar.google.com/event?eid="
)

// MockClient is an in-memory Calendar. It ignores calendar ids: every
// operation addresses the same store.
type MockClient struct {
	mu     sync.Mutex
	events map[string]*Event
	nextID int
}

// NewMockClient returns a store holding a single seeded event,
// test-event-1.
func NewMockClient() *MockClient {
	seed := &Event{
		ID:          "test-event-1",
		Summary:     "Existing Test Meeting",
		Description: "This is a test event",
		Start:       &EventTime{DateTime: "2024-08-24T10:00:00Z", TimeZone: DefaultTimeZone},
		End:         &EventTime{DateTime: "2024-08-24T11:00:00Z", TimeZone: DefaultTimeZone},
		Location:    "Test Location",
		Status:      "confirmed",
		HTMLLink:    mockLinkPrefix + "test-event-1",
		Attendees: []Attendee{
			{Email: "test@example.com", DisplayName: "Test User", ResponseStatus: "accepted"},
		},
	}

	return &MockClient{
		events: map[string]*Event{seed.ID: seed},
		nextID: 1,
	}
}

func (m *MockClient) CreateEvent(_ context.Context, args CreateEventArgs) (*Event, error) {
	args = args.WithDefaults()

	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("mock-event-%d", m.nextID)
	m.nextID++

	start, end := args.Start, args.End
	ev := &Event{
		ID:          id,
		Summary:     args.Summary,
		Description: args.Description,
		Start:       &start,
		End:         &end,
		Location:    args.Location,
		Status:      "confirmed",
		HTMLLink:    mockLinkPrefix + id,
	}
	for _, a := range args.Attendees {
		a.ResponseStatus = "needsAction"
		ev.Attendees = append(ev.Attendees, a)
	}

	m.events[id] = ev
	return ev.clone(), nil
}

func (m *MockClient) RescheduleEvent(_ context.Context, args RescheduleEventArgs) (*Event, error) {
	args = args.WithDefaults()

	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[args.EventID]
	if !ok {
		return nil, notFound(args.EventID)
	}

	start, end := args.Start, args.End
	ev.Start = &start
	ev.End = &end
	return ev.clone(), nil
}

func (m *MockClient) DeleteEvent(_ context.Context, args DeleteEventArgs) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[args.EventID]; !ok {
		return notFound(args.EventID)
	}
	delete(m.events, args.EventID)
	return nil
}

// ListEvents filters by q (case-insensitive substring of summary,
// description or location) and by start.dateTime against timeMin and
// timeMax. Bounds may be full timestamps or plain dates, read as UTC
// midnight. Events whose start.dateTime does not parse never get excluded,
// so all-day events always pass the time filter.
func (m *MockClient) ListEvents(_ context.Context, args ListEventsArgs) (*EventList, error) {
	args = args.WithDefaults()
	query := strings.ToLower(args.Q)
	timeMin, hasMin := parseTimestamp(args.TimeMin, time.UTC)
	timeMax, hasMax := parseTimestamp(args.TimeMax, time.UTC)

	m.mu.Lock()
	matched := make([]*Event, 0, len(m.events))
	for _, ev := range m.events {
		if query != "" && !matchesQuery(ev, query) {
			continue
		}
		if start, ok := eventStart(ev); ok {
			if hasMin && start.Before(timeMin) {
				continue
			}
			if hasMax && start.After(timeMax) {
				continue
			}
		}
		matched = append(matched, ev.clone())
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		si, iok := eventStart(matched[i])
		sj, jok := eventStart(matched[j])
		switch {
		case iok && jok && !si.Equal(sj):
			return si.Before(sj)
		case iok != jok:
			return iok
		}
		return matched[i].ID < matched[j].ID
	})

	list := &EventList{}
	if len(matched) > args.MaxResults {
		matched = matched[:args.MaxResults]
		list.NextPageToken = mockNextPageToken
	}
	for _, ev := range matched {
		list.Events = append(list.Events, *ev)
	}
	return list, nil
}

func matchesQuery(ev *Event, query string) bool {
	return strings.Contains(strings.ToLower(ev.Summary), query) ||
		strings.Contains(strings.ToLower(ev.Description), query) ||
		strings.Contains(strings.ToLower(ev.Location), query)
}

// eventStart parses start.dateTime, reading zone-less values in the event's
// own time zone.
func eventStart(ev *Event) (time.Time, bool) {
	if ev.Start == nil {
		return time.Time{}, false
	}
	loc := time.UTC
	if ev.Start.TimeZone != "" {
		if l, err := time.LoadLocation(ev.Start.TimeZone); err == nil {
			loc = l
		}
	}
	return parseTimestamp(ev.Start.DateTime, loc)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

func parseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
