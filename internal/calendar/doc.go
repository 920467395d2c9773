// Package calendar implements the four event operations behind the MCP
// tools: create, reschedule, delete and list.
//
// Calendar is implemented twice. RemoteClient talks to the Google Calendar
// v3 API and authenticates lazily from a google.AuthConfig on first use.
// MockClient keeps events in memory and is what the server runs with
// --mock. Both return structured results; FormatEvent, FormatDeleted and
// FormatEventList render them as the text handed back to MCP clients.
//
// Example usage:
//
//	client := calendar.NewRemoteClient(cfg.Auth())
//	ev, err := client.CreateEvent(ctx, calendar.CreateEventArgs{
//		Summary: "Design review",
//		Start:   calendar.EventTime{DateTime: "2024-08-25T15:00:00Z"},
//		End:     calendar.EventTime{DateTime: "2024-08-25T16:00:00Z"},
//	})
//	if err != nil {
//		return err
//	}
//	fmt.Println(calendar.FormatEvent(ev))
package calendar
