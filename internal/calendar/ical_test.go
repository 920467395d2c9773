package calendar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeICS(t *testing.T) {
	list := &EventList{Events: []Event{
		{
			ID:          "evt-1",
			Summary:     "Design review",
			Description: "Bring notes",
			Location:    "Room A",
			Status:      "confirmed",
			Start:       &EventTime{DateTime: "2024-08-25T17:00:00+02:00"},
			End:         &EventTime{DateTime: "2024-08-25T16:00:00Z"},
			Attendees: []Attendee{
				{Email: "jane@example.com", DisplayName: "Jane", ResponseStatus: "accepted"},
			},
		},
		{
			Summary: "Offsite",
			Start:   &EventTime{Date: "2024-09-01"},
			End:     &EventTime{Date: "2024-09-02"},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, EncodeICS(&buf, list))

	out := buf.String()
	assert.Contains(t, out, "PRODID:"+ICSProductID)
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	timed := events[0]
	assert.Equal(t, "evt-1", timed.Props.Get(ical.PropUID).Value)
	assert.Equal(t, "Design review", timed.Props.Get(ical.PropSummary).Value)
	assert.Equal(t, "20240825T150000Z", timed.Props.Get(ical.PropDateTimeStart).Value)
	assert.Equal(t, "20240825T160000Z", timed.Props.Get(ical.PropDateTimeEnd).Value)
	assert.Equal(t, "CONFIRMED", timed.Props.Get("STATUS").Value)

	attendee := timed.Props.Get(ical.PropAttendee)
	require.NotNil(t, attendee)
	assert.Equal(t, "mailto:jane@example.com", attendee.Value)
	assert.Equal(t, "Jane", attendee.Params.Get("CN"))
	assert.Equal(t, "ACCEPTED", attendee.Params.Get("PARTSTAT"))

	allDay := events[1]
	assert.NotEmpty(t, allDay.Props.Get(ical.PropUID).Value, "missing id gets a generated UID")
	assert.Equal(t, "20240901", allDay.Props.Get(ical.PropDateTimeStart).Value)
}

func TestEncodeICS_LinkIsNotTextEscaped(t *testing.T) {
	link := "https://calendar.google.com/event?eid=a,b;c"
	list := &EventList{Events: []Event{{
		ID:       "evt-1",
		Summary:  "Sync, weekly",
		HTMLLink: link,
		Start:    &EventTime{DateTime: "2024-08-25T15:00:00Z"},
		End:      &EventTime{DateTime: "2024-08-25T16:00:00Z"},
	}}}

	var buf bytes.Buffer
	require.NoError(t, EncodeICS(&buf, list))

	out := buf.String()
	assert.Contains(t, out, "URL:"+link+"\r\n")
	assert.Contains(t, out, "SUMMARY:Sync\\, weekly")

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)
	u, err := cal.Events()[0].Props.URI(ical.PropURL)
	require.NoError(t, err)
	assert.Equal(t, link, u.String())
}

func TestEncodeICS_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, EncodeICS(&buf, &EventList{}), ErrNoEvents)
	assert.Zero(t, buf.Len())
}

func TestPartStat(t *testing.T) {
	tests := map[string]string{
		"accepted":    "ACCEPTED",
		"declined":    "DECLINED",
		"tentative":   "TENTATIVE",
		"needsAction": "NEEDS-ACTION",
		"":            "",
		"unknown":     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, partStat(in), in)
	}
}
