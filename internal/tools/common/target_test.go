package common

import "testing"

func TestTargetFromArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         map[string]any
		wantCalendar string
		wantEvent    string
	}{
		{
			name:         "nil args",
			args:         nil,
			wantCalendar: "primary",
		},
		{
			name:         "calendar and event",
			args:         map[string]any{"calendarId": "team@example.com", "eventId": "evt-1"},
			wantCalendar: "team@example.com",
			wantEvent:    "evt-1",
		},
		{
			name:         "empty calendar falls back to primary",
			args:         map[string]any{"calendarId": ""},
			wantCalendar: "primary",
		},
		{
			name:         "wrong types are ignored",
			args:         map[string]any{"calendarId": 42, "eventId": true},
			wantCalendar: "primary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal, ev := TargetFromArgs(tt.args)
			if cal != tt.wantCalendar {
				t.Errorf("calendarID = %q, want %q", cal, tt.wantCalendar)
			}
			if ev != tt.wantEvent {
				t.Errorf("eventID = %q, want %q", ev, tt.wantEvent)
			}
		})
	}
}
