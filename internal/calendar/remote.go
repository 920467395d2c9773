package calendar

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/XueTang422/calendar-mcp/internal/google"
	"github.com/XueTang422/calendar-mcp/internal/instrumentation"
	"github.com/XueTang422/calendar-mcp/internal/logging"
)

// sendUpdates makes the provider notify attendees of every change.
const sendUpdates = "all"

var errNoEventID = errors.New("Failed to create event - no event ID returned")

// Values reported by RemoteClient.AuthState.
const (
	AuthStatePending       = "pending"
	AuthStateAuthenticated = "authenticated"
	AuthStateFailed        = "failed"
)

// authState is either unauthenticated or authenticated.
type authState interface {
	isAuthState()
}

// unauthenticated keeps the error of the last failed attempt, if any.
type unauthenticated struct {
	cfg     google.AuthConfig
	lastErr error
}

type authenticated struct {
	svc *gcal.Service
}

func (unauthenticated) isAuthState() {}
func (authenticated) isAuthState()   {}

// RemoteClient implements Calendar against the Google Calendar v3 API.
type RemoteClient struct {
	mu   sync.Mutex
	auth authState

	clientOptions []option.ClientOption
	metrics       *instrumentation.Metrics
	logger        logging.Logger
}

// RemoteOption configures a RemoteClient.
type RemoteOption func(*RemoteClient)

// WithMetrics records API operations and token refreshes on m.
func WithMetrics(m *instrumentation.Metrics) RemoteOption {
	return func(c *RemoteClient) { c.metrics = m }
}

func WithLogger(l logging.Logger) RemoteOption {
	return func(c *RemoteClient) { c.logger = l }
}

// WithClientOptions appends options passed to calendar.NewService when the
// client authenticates, e.g. option.WithEndpoint.
func WithClientOptions(opts ...option.ClientOption) RemoteOption {
	return func(c *RemoteClient) { c.clientOptions = append(c.clientOptions, opts...) }
}

// NewRemoteClient returns a client that authenticates with cfg on its first
// call. Credentials are not checked here; use cfg.Validate to fail early.
func NewRemoteClient(cfg google.AuthConfig, opts ...RemoteOption) *RemoteClient {
	return newRemoteClient(unauthenticated{cfg: cfg}, opts)
}

// NewRemoteClientWithService wraps an already authenticated service.
func NewRemoteClientWithService(svc *gcal.Service, opts ...RemoteOption) *RemoteClient {
	return newRemoteClient(authenticated{svc: svc}, opts)
}

func newRemoteClient(state authState, opts []RemoteOption) *RemoteClient {
	c := &RemoteClient{auth: state, logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// service returns the calendar service, authenticating on first use. A
// failed authentication leaves the client unauthenticated so the next call
// retries.
func (c *RemoteClient) service(ctx context.Context) (*gcal.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch state := c.auth.(type) {
	case authenticated:
		return state.svc, nil
	case unauthenticated:
		svc, err := c.authenticate(ctx, state.cfg)
		if err != nil {
			c.auth = unauthenticated{cfg: state.cfg, lastErr: err}
			return nil, err
		}
		c.auth = authenticated{svc: svc}
		return svc, nil
	default:
		return nil, errors.Errorf("unexpected auth state %T", state)
	}
}

// AuthState reports whether the client has authenticated yet. A client that
// has not been used is pending; one whose last attempt failed is failed
// until a later call succeeds.
func (c *RemoteClient) AuthState() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state, ok := c.auth.(unauthenticated); ok {
		if state.lastErr != nil {
			return AuthStateFailed
		}
		return AuthStatePending
	}
	return AuthStateAuthenticated
}

func (c *RemoteClient) authenticate(ctx context.Context, cfg google.AuthConfig) (*gcal.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The token source outlives the request that triggered authentication.
	base, err := cfg.TokenSource(context.Background())
	if err != nil {
		return nil, err
	}

	ts := oauth2.ReuseTokenSource(nil, &refreshRecorder{base: base, metrics: c.metrics})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: http.DefaultTransport},
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.clientOptions...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create calendar service")
	}

	attrs := []any{slog.String("method", cfg.Method().String())}
	if cfg.Method() == google.AuthRefreshToken {
		attrs = append(attrs, slog.String("refresh_token", logging.SanitizeToken(cfg.RefreshToken)))
	}
	c.logger.Info("authenticated with Google Calendar", attrs...)
	return svc, nil
}

// refreshRecorder counts every token fetched from the credential source.
type refreshRecorder struct {
	base    oauth2.TokenSource
	metrics *instrumentation.Metrics
}

func (r *refreshRecorder) Token() (*oauth2.Token, error) {
	tok, err := r.base.Token()
	result := instrumentation.TokenRefreshSuccess
	if err != nil {
		result = instrumentation.TokenRefreshFailure
	}
	r.metrics.RecordTokenRefresh(context.Background(), result)
	return tok, err
}

// observe runs fn inside a google.calendar.<operation> span and records the
// API metrics.
func (c *RemoteClient) observe(ctx context.Context, operation string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, operation, attrs...)
	start := time.Now()

	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, time.Since(start))
	instrumentation.EndSpan(span, err)

	c.logger.Debug("calendar api call",
		logging.Operation(operation),
		logging.Status(status),
		slog.Duration(logging.KeyDuration, time.Since(start)),
		logging.Err(err),
	)
	return err
}

func (c *RemoteClient) CreateEvent(ctx context.Context, args CreateEventArgs) (*Event, error) {
	args = args.WithDefaults()

	svc, err := c.service(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create calendar event")
	}

	payload := &gcal.Event{
		Summary:     args.Summary,
		Description: args.Description,
		Location:    args.Location,
		Start:       toAPITime(args.Start),
		End:         toAPITime(args.End),
	}
	for _, a := range args.Attendees {
		payload.Attendees = append(payload.Attendees, &gcal.EventAttendee{
			Email:       a.Email,
			DisplayName: a.DisplayName,
		})
	}

	attrs := instrumentation.NewSpanAttributeBuilder().WithCalendar(args.CalendarID).Build()

	var created *gcal.Event
	err = c.observe(ctx, instrumentation.OperationInsert, attrs, func(ctx context.Context) error {
		var err error
		created, err = svc.Events.Insert(args.CalendarID, payload).SendUpdates(sendUpdates).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create calendar event")
	}
	if created == nil || created.Id == "" {
		return nil, errors.Wrap(errNoEventID, "Failed to create calendar event")
	}

	return fromAPIEvent(created), nil
}

// RescheduleEvent fetches the event, replaces only start and end, and
// writes the full event back.
func (c *RemoteClient) RescheduleEvent(ctx context.Context, args RescheduleEventArgs) (*Event, error) {
	args = args.WithDefaults()

	svc, err := c.service(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to reschedule event")
	}

	attrs := instrumentation.NewSpanAttributeBuilder().
		WithCalendar(args.CalendarID).
		WithEvent(args.EventID).
		Build()

	var existing *gcal.Event
	err = c.observe(ctx, instrumentation.OperationGet, attrs, func(ctx context.Context) error {
		var err error
		existing, err = svc.Events.Get(args.CalendarID, args.EventID).Context(ctx).Do()
		return err
	})
	if isNotFound(err) || (err == nil && existing == nil) {
		return nil, errors.Wrap(notFound(args.EventID), "Failed to reschedule event")
	}
	if err != nil {
		return nil, errors.Wrap(err, "Failed to reschedule event")
	}

	existing.Start = toAPITime(args.Start)
	existing.End = toAPITime(args.End)

	var updated *gcal.Event
	err = c.observe(ctx, instrumentation.OperationUpdate, attrs, func(ctx context.Context) error {
		var err error
		updated, err = svc.Events.Update(args.CalendarID, args.EventID, existing).SendUpdates(sendUpdates).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to reschedule event")
	}

	return fromAPIEvent(updated), nil
}

func (c *RemoteClient) DeleteEvent(ctx context.Context, args DeleteEventArgs) error {
	args = args.WithDefaults()

	svc, err := c.service(ctx)
	if err != nil {
		return errors.Wrap(err, "Failed to delete event")
	}

	attrs := instrumentation.NewSpanAttributeBuilder().
		WithCalendar(args.CalendarID).
		WithEvent(args.EventID).
		Build()

	err = c.observe(ctx, instrumentation.OperationDelete, attrs, func(ctx context.Context) error {
		return svc.Events.Delete(args.CalendarID, args.EventID).SendUpdates(sendUpdates).Context(ctx).Do()
	})
	if isNotFound(err) {
		return errors.Wrap(notFound(args.EventID), "Failed to delete event")
	}
	if err != nil {
		return errors.Wrap(err, "Failed to delete event")
	}
	return nil
}

// ListEvents expands recurring events into single instances ordered by
// start time.
func (c *RemoteClient) ListEvents(ctx context.Context, args ListEventsArgs) (*EventList, error) {
	args = args.WithDefaults()

	svc, err := c.service(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list events")
	}

	call := svc.Events.List(args.CalendarID).
		MaxResults(int64(args.MaxResults)).
		SingleEvents(true).
		OrderBy("startTime")
	if args.TimeMin != "" {
		call = call.TimeMin(args.TimeMin)
	}
	if args.TimeMax != "" {
		call = call.TimeMax(args.TimeMax)
	}
	if args.Q != "" {
		call = call.Q(args.Q)
	}

	attrs := instrumentation.NewSpanAttributeBuilder().
		WithCalendar(args.CalendarID).
		WithReadOnly(true).
		Build()

	var resp *gcal.Events
	err = c.observe(ctx, instrumentation.OperationList, attrs, func(ctx context.Context) error {
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list events")
	}

	list := &EventList{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		list.Events = append(list.Events, *fromAPIEvent(item))
	}
	return list, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
}

func toAPITime(t EventTime) *gcal.EventDateTime {
	return &gcal.EventDateTime{
		DateTime: t.DateTime,
		TimeZone: t.TimeZone,
	}
}

func fromAPITime(t *gcal.EventDateTime) *EventTime {
	if t == nil {
		return nil
	}
	return &EventTime{
		DateTime: t.DateTime,
		Date:     t.Date,
		TimeZone: t.TimeZone,
	}
}

func fromAPIEvent(ev *gcal.Event) *Event {
	if ev == nil {
		return &Event{}
	}

	out := &Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       fromAPITime(ev.Start),
		End:         fromAPITime(ev.End),
		Location:    ev.Location,
		Status:      ev.Status,
		HTMLLink:    ev.HtmlLink,
	}
	for _, a := range ev.Attendees {
		if a == nil {
			continue
		}
		out.Attendees = append(out.Attendees, Attendee{
			Email:          a.Email,
			DisplayName:    a.DisplayName,
			ResponseStatus: a.ResponseStatus,
		})
	}
	return out
}
