package calendar

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// Calendar is the set of event operations exposed as tools.
type Calendar interface {
	CreateEvent(ctx context.Context, args CreateEventArgs) (*Event, error)
	RescheduleEvent(ctx context.Context, args RescheduleEventArgs) (*Event, error)
	DeleteEvent(ctx context.Context, args DeleteEventArgs) error
	ListEvents(ctx context.Context, args ListEventsArgs) (*EventList, error)
}

// ErrEventNotFound matches every NotFoundError.
var ErrEventNotFound = errors.New("event not found")

// NotFoundError reports an event id that does not exist in the calendar.
type NotFoundError struct {
	EventID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Event with ID %s not found", e.EventID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrEventNotFound
}

func notFound(eventID string) error {
	return &NotFoundError{EventID: eventID}
}

var (
	_ Calendar = (*RemoteClient)(nil)
	_ Calendar = (*MockClient)(nil)
)
