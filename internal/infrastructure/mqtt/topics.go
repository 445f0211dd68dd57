package mqtt

import (
	"fmt"
	"strings"
)

// DefaultBaseTopic is the topic prefix used when the configuration does
// not override it.
const DefaultBaseTopic = "hearth"

// Topics builds the hub's MQTT topic names. Using these helpers keeps
// the scheme consistent across publisher and subscriber code:
//
//	{base}/sensor/{role}/reading     sensor readings as they arrive
//	{base}/actuator/{role}/state     actuator state after a change
//	{base}/actuator/{role}/set       inbound commands for an actuator
//	{base}/event/{kind}              hub events
//	{base}/hub/status                retained online/offline status (LWT)
type Topics struct {
	// Base is the topic prefix; empty means DefaultBaseTopic.
	Base string
}

func (t Topics) base() string {
	if t.Base == "" {
		return DefaultBaseTopic
	}
	return t.Base
}

// SensorReading returns the topic carrying readings for one sensor role.
//
// Example: hearth/sensor/temperature/reading
func (t Topics) SensorReading(role string) string {
	return fmt.Sprintf("%s/sensor/%s/reading", t.base(), role)
}

// ActuatorState returns the topic carrying state changes for one
// actuator role.
//
// Example: hearth/actuator/heater/state
func (t Topics) ActuatorState(role string) string {
	return fmt.Sprintf("%s/actuator/%s/state", t.base(), role)
}

// ActuatorSet returns the topic external clients publish commands to.
//
// Example: hearth/actuator/heater/set
func (t Topics) ActuatorSet(role string) string {
	return fmt.Sprintf("%s/actuator/%s/set", t.base(), role)
}

// Event returns the topic for one kind of hub event.
//
// Example: hearth/event/actuator_state_changed
func (t Topics) Event(kind string) string {
	return fmt.Sprintf("%s/event/%s", t.base(), kind)
}

// HubStatus returns the retained status topic. The broker publishes the
// LWT here when the hub disappears without a goodbye.
//
// Example: hearth/hub/status
func (t Topics) HubStatus() string {
	return fmt.Sprintf("%s/hub/status", t.base())
}

// AllActuatorSets returns a pattern matching every actuator command
// topic.
//
// Pattern: hearth/actuator/+/set
func (t Topics) AllActuatorSets() string {
	return fmt.Sprintf("%s/actuator/+/set", t.base())
}

// ActuatorSetRole extracts the actuator role from a command topic.
//
// Returns:
//   - string: the role segment
//   - bool: false if the topic does not match {base}/actuator/{role}/set
func (t Topics) ActuatorSetRole(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.base()+"/actuator/")
	if !ok {
		return "", false
	}
	role, ok := strings.CutSuffix(rest, "/set")
	if !ok || role == "" || strings.Contains(role, "/") {
		return "", false
	}
	return role, true
}
