package device

import (
	"time"

	"github.com/google/uuid"
)

// Logger defines the logging interface used by the device runtime.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Reading is one sampled sensor value.
//
// Value is a primitive: float64 for numeric sensors (temperature, light
// level) or bool for binary sensors (motion).
type Reading struct {
	SensorID   string    `json:"sensor_id"`
	SensorName string    `json:"sensor_name"`
	Value      any       `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

// Action identifies what a Command asks an actuator to do.
type Action string

// Actions understood by the stock actuators. Activate and Deactivate are
// aliases of TurnOn and TurnOff used by the alarm; Set carries only
// parameter updates.
const (
	ActionTurnOn     Action = "turn_on"
	ActionTurnOff    Action = "turn_off"
	ActionToggle     Action = "toggle"
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
	ActionSet        Action = "set"
)

// Command is one requested actuator operation.
//
// Params carries optional parameter updates (brightness, target
// temperature) that apply independently of any on/off transition.
// Source records where the command came from (rule ID, "api", "mqtt").
type Command struct {
	ID       string         `json:"id"`
	Actuator string         `json:"actuator"`
	Action   Action         `json:"action"`
	Params   map[string]any `json:"params,omitempty"`
	Source   string         `json:"source,omitempty"`
	IssuedAt time.Time      `json:"issued_at"`
}

// NewCommand builds a Command with a fresh ID and timestamp.
//
// Parameters:
//   - actuator: Role key of the target actuator
//   - action: Requested action
//   - params: Optional parameter updates, may be nil
//   - source: Origin of the command (rule ID, "api", "mqtt")
//
// Returns:
//   - Command: Ready to enqueue
func NewCommand(actuator string, action Action, params map[string]any, source string) Command {
	return Command{
		ID:       uuid.NewString(),
		Actuator: actuator,
		Action:   action,
		Params:   CloneParams(params),
		Source:   source,
		IssuedAt: time.Now().UTC(),
	}
}

// CloneParams creates a deep copy of a parameter map.
// Nested maps and slices are recursively copied so modifications to the
// copy do not affect the original.
func CloneParams(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = cloneValue(v)
	}
	return cpy
}

// cloneValue recursively copies a value, handling nested maps and slices.
func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return CloneParams(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = cloneValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}
