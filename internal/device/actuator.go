package device

import (
	"fmt"
	"sync"
	"time"
)

// defaultQueueSize is the command queue capacity when none is configured.
const defaultQueueSize = 16

// defaultWaitInterval is how long the actuator loop blocks on its queue
// before re-checking the running flag.
const defaultWaitInterval = 100 * time.Millisecond

// Actor implements actuator-specific command behaviour.
//
// Apply resolves a command against the current state and returns the next
// state. Parameter-only commands return the current state unchanged. The
// returned state must be a comparable primitive (the runtime detects
// changes with ==).
type Actor interface {
	Apply(cmd Command, current any) (any, error)
}

// ParamReporter is an optional interface for actors that carry parameters
// beyond the on/off state (brightness, target temperature). The runtime
// exposes them through Actuator.Params.
type ParamReporter interface {
	Params() map[string]any
}

// ChangeHook is called after an actuator's state actually changes.
// Idempotent commands never trigger it.
type ChangeHook func(old, new any)

// Actuator consumes Commands from a private queue and maintains a state.
//
// The loop blocks on the queue with a bounded wait so an idle actuator
// does not spin yet stays responsive to Stop. Failed commands are logged
// and dropped, never retried.
type Actuator struct {
	lifecycle

	actor    Actor
	queue    chan Command
	wait     time.Duration
	onChange ChangeHook

	stateMu sync.RWMutex
	state   any
}

// ActuatorConfig describes one actuator.
type ActuatorConfig struct {
	ID           string
	Name         string
	Enabled      bool
	InitialState any
	Actor        Actor

	// QueueSize is the command queue capacity; zero means 16.
	QueueSize int

	// WaitInterval bounds the queue receive; zero means 100ms.
	WaitInterval time.Duration

	// OnChange is invoked after every actual state change.
	OnChange ChangeHook

	// StopTimeout bounds Stop's join; zero means DefaultStopTimeout.
	StopTimeout time.Duration
	Logger      Logger
}

// NewActuator creates an Actuator from its configuration.
//
// Returns:
//   - *Actuator: Ready to Start
//   - error: ErrInvalidDevice if identity or actor is missing
func NewActuator(cfg ActuatorConfig) (*Actuator, error) {
	if cfg.ID == "" || cfg.Name == "" {
		return nil, fmt.Errorf("%w: actuator requires id and name", ErrInvalidDevice)
	}
	if cfg.Actor == nil {
		return nil, fmt.Errorf("%w: actuator %s requires an actor", ErrInvalidDevice, cfg.ID)
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	wait := cfg.WaitInterval
	if wait <= 0 {
		wait = defaultWaitInterval
	}

	return &Actuator{
		lifecycle: newLifecycle(cfg.ID, cfg.Name, cfg.Enabled, cfg.StopTimeout, cfg.Logger),
		actor:     cfg.Actor,
		queue:     make(chan Command, queueSize),
		wait:      wait,
		onChange:  cfg.OnChange,
		state:     cfg.InitialState,
	}, nil
}

// Start launches the command loop. Disabled or already-running actuators
// are a logged no-op.
func (a *Actuator) Start() {
	a.start(a.run)
}

// State returns the actuator's current state.
func (a *Actuator) State() any {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

// Params returns a copy of the actor's extra parameters, or nil when the
// actor reports none.
func (a *Actuator) Params() map[string]any {
	if reporter, ok := a.actor.(ParamReporter); ok {
		return CloneParams(reporter.Params())
	}
	return nil
}

// Enqueue delivers a command to the actuator's queue without blocking.
//
// Commands may be enqueued while the actuator is stopped; they are
// processed once it starts.
//
// Returns:
//   - error: ErrQueueFull when the queue cannot accept the command
func (a *Actuator) Enqueue(cmd Command) error {
	select {
	case a.queue <- cmd:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, a.id)
	}
}

// run is the actuator loop: blocking dequeue with a bounded wait, then
// command execution.
func (a *Actuator) run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case cmd := <-a.queue:
			a.execute(cmd)
		case <-time.After(a.wait):
			// Wake to re-check the running flag.
			if !a.IsRunning() {
				return
			}
		}
	}
}

// execute resolves one command through the actor and assigns the result.
func (a *Actuator) execute(cmd Command) {
	next, err := a.actor.Apply(cmd, a.State())
	if err != nil {
		a.log.Error("command failed, dropping",
			"device_id", a.id, "command_id", cmd.ID,
			"action", cmd.Action, "source", cmd.Source, "error", err)
		return
	}

	a.setState(next, cmd)
}

// setState assigns the next state and fires the change hook only when the
// value actually changed. Idempotent commands are silent.
func (a *Actuator) setState(next any, cmd Command) {
	a.stateMu.Lock()
	old := a.state
	changed := old != next
	if changed {
		a.state = next
	}
	a.stateMu.Unlock()

	if !changed {
		a.log.Debug("actuator state unchanged",
			"device_id", a.id, "action", cmd.Action, "state", next)
		return
	}

	a.log.Info("actuator state changed",
		"device_id", a.id, "name", a.name,
		"from", old, "to", next, "source", cmd.Source)

	if a.onChange != nil {
		a.onChange(old, next)
	}
}
