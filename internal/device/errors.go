package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrQueueFull) {
//	    // handle full queue case
//	}
var (
	// ErrInvalidDevice is returned when a sensor or actuator configuration
	// is incomplete.
	ErrInvalidDevice = errors.New("device: invalid configuration")

	// ErrQueueFull is returned when a command cannot be enqueued without
	// blocking the caller.
	ErrQueueFull = errors.New("device: command queue full")

	// ErrUnknownAction is returned by actors when a command names an action
	// the actuator does not implement.
	ErrUnknownAction = errors.New("device: unknown action")
)
