package calendar

const (
	DefaultCalendarID = "primary"
	DefaultTimeZone   = "UTC"
	DefaultMaxResults = 50

	// untitledSummary is shown for listed events without a summary.
	untitledSummary = "No title"
)

// EventTime is the start or end of an event. Date is only set on all-day
// events returned by the provider.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

func (t EventTime) withDefaults() EventTime {
	if t.TimeZone == "" {
		t.TimeZone = DefaultTimeZone
	}
	return t
}

// Attendee is an event guest. Email is passed through unvalidated.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

type CreateEventArgs struct {
	Summary     string
	Description string
	Start       EventTime
	End         EventTime
	Attendees   []Attendee
	Location    string
	CalendarID  string
}

// WithDefaults fills in the UTC time zone and the primary calendar.
func (a CreateEventArgs) WithDefaults() CreateEventArgs {
	a.Start = a.Start.withDefaults()
	a.End = a.End.withDefaults()
	if a.CalendarID == "" {
		a.CalendarID = DefaultCalendarID
	}
	return a
}

// RescheduleEventArgs moves an event. Everything but start and end is kept.
type RescheduleEventArgs struct {
	EventID    string
	Start      EventTime
	End        EventTime
	CalendarID string
}

func (a RescheduleEventArgs) WithDefaults() RescheduleEventArgs {
	a.Start = a.Start.withDefaults()
	a.End = a.End.withDefaults()
	if a.CalendarID == "" {
		a.CalendarID = DefaultCalendarID
	}
	return a
}

type DeleteEventArgs struct {
	EventID    string
	CalendarID string
}

func (a DeleteEventArgs) WithDefaults() DeleteEventArgs {
	if a.CalendarID == "" {
		a.CalendarID = DefaultCalendarID
	}
	return a
}

// ListEventsArgs filters a listing. TimeMin and TimeMax are ISO 8601
// timestamps; all fields are optional.
type ListEventsArgs struct {
	CalendarID string
	TimeMin    string
	TimeMax    string
	MaxResults int
	Q          string
}

func (a ListEventsArgs) WithDefaults() ListEventsArgs {
	if a.CalendarID == "" {
		a.CalendarID = DefaultCalendarID
	}
	if a.MaxResults <= 0 {
		a.MaxResults = DefaultMaxResults
	}
	return a
}

// Event is the projection of a provider event returned to clients.
type Event struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Start       *EventTime `json:"start,omitempty"`
	End         *EventTime `json:"end,omitempty"`
	Location    string     `json:"location,omitempty"`
	Status      string     `json:"status,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`
}

func (e *Event) clone() *Event {
	c := *e
	if e.Start != nil {
		start := *e.Start
		c.Start = &start
	}
	if e.End != nil {
		end := *e.End
		c.End = &end
	}
	if e.Attendees != nil {
		c.Attendees = append([]Attendee(nil), e.Attendees...)
	}
	return &c
}

// EventList is one page of a listing.
type EventList struct {
	Events        []Event
	NextPageToken string
}
