package hub

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearth-home/hearth-core/internal/device"
)

// EventKind classifies hub events.
type EventKind string

const (
	// EventHubStarted is emitted once when the hub comes up.
	EventHubStarted EventKind = "hub_started"

	// EventHubStopped is emitted once when the hub shuts down.
	EventHubStopped EventKind = "hub_stopped"

	// EventActuatorState is emitted when an actuator's on/off state
	// actually changes. Parameter-only commands do not produce one.
	EventActuatorState EventKind = "actuator_state_changed"

	// EventCommandDropped is emitted when a command cannot be delivered,
	// either because its target is unknown or the target queue is full.
	EventCommandDropped EventKind = "command_dropped"

	// EventAwayMode is emitted when away mode is switched.
	EventAwayMode EventKind = "away_mode_changed"
)

// Event is a single entry in the hub's activity stream. Events feed the
// history log, the telemetry bridge and the websocket "events" channel.
type Event struct {
	ID      string         `json:"id"`
	Kind    EventKind      `json:"kind"`
	Subject string         `json:"subject"`
	Detail  map[string]any `json:"detail,omitempty"`
	At      time.Time      `json:"at"`
}

func newEvent(kind EventKind, subject string, detail map[string]any) Event {
	return Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Subject: subject,
		Detail:  detail,
		At:      time.Now().UTC(),
	}
}

// EventSink receives hub events. Implementations must not block for long;
// they run on hub goroutines.
type EventSink interface {
	RecordEvent(e Event)
}

// ReadingSink receives every sensor reading the controller drains, keyed
// by sensor role.
type ReadingSink interface {
	RecordReading(role string, r device.Reading)
}

// Broadcaster fans hub output to connected clients. The hub publishes
// per-cycle snapshots on the "state" channel and events on "events".
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Broadcast channel names.
const (
	ChannelState  = "state"
	ChannelEvents = "events"
)

// Logger abstracts structured logging so the package stays decoupled from
// the logging implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
