package state

import (
	"time"

	"github.com/hearth-home/hearth-core/internal/device"
)

// Device roles keying the aggregate state. Roles are fixed at hub
// construction; rules and façades address devices by role, never by ID.
const (
	RoleTemperature   = "temperature"
	RoleLight         = "light"
	RoleMotion        = "motion"
	RoleLightActuator = "light_actuator"
	RoleHeater        = "heater"
	RoleAlarm         = "alarm"
)

// SensorReading is the stored view of one sensor role.
type SensorReading struct {
	Value      any       `json:"value"`
	SensorID   string    `json:"sensor_id"`
	SensorName string    `json:"sensor_name"`
	Timestamp  time.Time `json:"timestamp"`
	Running    bool      `json:"running"`
}

// ActuatorState is the stored view of one actuator role.
type ActuatorState struct {
	State    any            `json:"state"`
	DeviceID string         `json:"device_id"`
	Name     string         `json:"name"`
	Params   map[string]any `json:"params,omitempty"`
	Running  bool           `json:"running"`
}

// Snapshot is an independent copy of the aggregate state at one instant.
// Mutating a snapshot never affects the store it came from.
type Snapshot struct {
	Sensors   map[string]SensorReading `json:"sensors"`
	Actuators map[string]ActuatorState `json:"actuators"`
	AwayMode  bool                     `json:"away_mode"`
	TakenAt   time.Time                `json:"taken_at"`
}

// SensorNumber returns the numeric value of a sensor role.
// The second result is false when the role is absent or not numeric.
func (s Snapshot) SensorNumber(role string) (float64, bool) {
	entry, ok := s.Sensors[role]
	if !ok {
		return 0, false
	}
	v, ok := entry.Value.(float64)
	return v, ok
}

// SensorBool returns the boolean value of a sensor role, false when the
// role is absent or not boolean.
func (s Snapshot) SensorBool(role string) bool {
	entry, ok := s.Sensors[role]
	if !ok {
		return false
	}
	v, _ := entry.Value.(bool)
	return v
}

// ActuatorOn reports whether an actuator role is present and switched on.
func (s Snapshot) ActuatorOn(role string) bool {
	entry, ok := s.Actuators[role]
	if !ok {
		return false
	}
	on, _ := entry.State.(bool)
	return on
}

// HasSensor reports whether a sensor role is present.
func (s Snapshot) HasSensor(role string) bool {
	_, ok := s.Sensors[role]
	return ok
}

// HasActuator reports whether an actuator role is present.
func (s Snapshot) HasActuator(role string) bool {
	_, ok := s.Actuators[role]
	return ok
}

// clone deep-copies a sensor entry. Values are primitives, so a value copy
// suffices.
func (r SensorReading) clone() SensorReading {
	return r
}

// clone deep-copies an actuator entry including its parameter map.
func (a ActuatorState) clone() ActuatorState {
	cpy := a
	cpy.Params = device.CloneParams(a.Params)
	return cpy
}
