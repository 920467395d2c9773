package google

// CalendarScope grants read/write access to calendars and events. It is the
// only scope the server requests, for service accounts and refresh tokens alike.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// DefaultScopes are the scopes requested when building a token source.
var DefaultScopes = []string{CalendarScope}
