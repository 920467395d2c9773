package calendar

import (
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ICSProductID is the PRODID written by EncodeICS.
const ICSProductID = "-//calendar-mcp//EN"

// ErrNoEvents is returned by EncodeICS for an empty list.
var ErrNoEvents = errors.New("no events to export")

// EncodeICS writes list as an iCalendar document with one VEVENT per event.
// Events without an id get a random UID.
func EncodeICS(w io.Writer, list *EventList) error {
	if list == nil || len(list.Events) == 0 {
		return ErrNoEvents
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ICSProductID)

	stamp := time.Now().UTC()
	for i := range list.Events {
		cal.Children = append(cal.Children, toVEvent(&list.Events[i], stamp))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return errors.Wrap(err, "encode calendar")
	}
	return nil
}

func toVEvent(ev *Event, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)

	uid := ev.ID
	if uid == "" {
		uid = uuid.NewString()
	}
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	if ev.Summary != "" {
		ve.Props.SetText(ical.PropSummary, ev.Summary)
	}
	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.Status != "" {
		ve.Props.SetText("STATUS", strings.ToUpper(ev.Status))
	}
	if ev.HTMLLink != "" {
		if u, err := url.Parse(ev.HTMLLink); err == nil {
			ve.Props.SetURI(ical.PropURL, u)
		}
	}

	setEventTime(ve, ical.PropDateTimeStart, ev.Start)
	setEventTime(ve, ical.PropDateTimeEnd, ev.End)

	for _, a := range ev.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		// CAL-ADDRESS values are not text-escaped.
		p.Value = "mailto:" + a.Email
		if a.DisplayName != "" {
			p.Params.Set("CN", a.DisplayName)
		}
		if status := partStat(a.ResponseStatus); status != "" {
			p.Params.Set("PARTSTAT", status)
		}
		ve.Props.Add(p)
	}

	return ve
}

// setEventTime writes all-day events as DATE values and timed events in UTC.
// Unparseable values are skipped.
func setEventTime(ve *ical.Component, name string, t *EventTime) {
	if t == nil {
		return
	}

	if t.Date != "" {
		if d, err := time.Parse(time.DateOnly, t.Date); err == nil {
			p := ical.NewProp(name)
			p.SetDate(d)
			ve.Props.Set(p)
		}
		return
	}

	loc := time.UTC
	if t.TimeZone != "" {
		if l, err := time.LoadLocation(t.TimeZone); err == nil {
			loc = l
		}
	}
	if ts, ok := parseTimestamp(t.DateTime, loc); ok {
		ve.Props.SetDateTime(name, ts.UTC())
	}
}

// partStat maps a Calendar API responseStatus to an iCalendar PARTSTAT.
func partStat(responseStatus string) string {
	switch responseStatus {
	case "accepted":
		return "ACCEPTED"
	case "declined":
		return "DECLINED"
	case "tentative":
		return "TENTATIVE"
	case "needsAction":
		return "NEEDS-ACTION"
	default:
		return ""
	}
}
