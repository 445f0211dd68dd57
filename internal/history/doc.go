// Package history persists the hub's event stream to SQLite.
//
// The Log satisfies hub.EventSink, so attaching it to the hub is enough
// to capture every lifecycle, actuation and away-mode event:
//
//	hub events ──▶ Log.RecordEvent ──▶ INSERT INTO events
//	                                      │
//	API /events ◀── Log.Recent ◀──────────┘
//
// The schema is owned here and created on first open. Sink writes never
// surface errors to the hub; a failed insert is logged and dropped. Old
// entries are removed by Prune, typically on a timer.
package history
