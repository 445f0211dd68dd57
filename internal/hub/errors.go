package hub

import "errors"

// Sentinel errors returned by hub operations.
// Use errors.Is to check for these conditions.
var (
	// ErrActuatorNotFound indicates a command targeted an actuator role
	// that is not part of the hub's device inventory.
	ErrActuatorNotFound = errors.New("hub: actuator not found")
)
