package device

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ─── Mock Actor ─────────────────────────────────────────────────────────────

// switchActor is a minimal on/off actor with one numeric parameter.
type switchActor struct {
	mu     sync.Mutex
	level  float64
	failOn Action
}

func (s *switchActor) Apply(cmd Command, current any) (any, error) {
	if cmd.Action == s.failOn {
		return nil, errors.New("simulated hardware fault")
	}

	if v, ok := cmd.Params["level"]; ok {
		level, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("invalid level %v", v)
		}
		s.mu.Lock()
		s.level = level
		s.mu.Unlock()
	}

	on, _ := current.(bool)
	switch cmd.Action {
	case ActionTurnOn, ActionActivate:
		return true, nil
	case ActionTurnOff, ActionDeactivate:
		return false, nil
	case ActionToggle:
		return !on, nil
	case ActionSet:
		return current, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, cmd.Action)
	}
}

func (s *switchActor) Params() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{"level": s.level}
}

// ─── Helper ─────────────────────────────────────────────────────────────────

func setupActuator(t *testing.T, actor Actor, hook ChangeHook) *Actuator {
	t.Helper()

	act, err := NewActuator(ActuatorConfig{
		ID:           "light_act_01",
		Name:         "Light Actuator",
		Enabled:      true,
		InitialState: false,
		Actor:        actor,
		WaitInterval: 10 * time.Millisecond,
		OnChange:     hook,
	})
	if err != nil {
		t.Fatalf("NewActuator: %v", err)
	}
	return act
}

func enqueue(t *testing.T, a *Actuator, action Action, params map[string]any) {
	t.Helper()

	if err := a.Enqueue(NewCommand("light_actuator", action, params, "test")); err != nil {
		t.Fatalf("Enqueue(%s): %v", action, err)
	}
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestActuator_ExecutesCommands(t *testing.T) {
	act := setupActuator(t, &switchActor{}, nil)
	act.Start()
	defer act.Stop()

	enqueue(t, act, ActionTurnOn, nil)
	waitFor(t, time.Second, func() bool { return act.State() == true }, "turn_on applied")

	enqueue(t, act, ActionToggle, nil)
	waitFor(t, time.Second, func() bool { return act.State() == false }, "toggle applied")
}

func TestActuator_ChangeHookFiresOnlyOnRealChange(t *testing.T) {
	var changes atomic.Int32
	hook := func(old, new any) { changes.Add(1) }

	act := setupActuator(t, &switchActor{}, hook)
	act.Start()
	defer act.Stop()

	enqueue(t, act, ActionTurnOn, nil) // false -> true: fires
	enqueue(t, act, ActionTurnOn, nil) // true -> true: silent
	enqueue(t, act, ActionTurnOn, nil) // true -> true: silent
	enqueue(t, act, ActionTurnOff, nil) // true -> false: fires

	waitFor(t, time.Second, func() bool { return changes.Load() == 2 && act.State() == false }, "commands drained")

	if got := changes.Load(); got != 2 {
		t.Errorf("change hook fired %d times, want 2", got)
	}
}

func TestActuator_FailedCommandIsDropped(t *testing.T) {
	actor := &switchActor{failOn: ActionTurnOn}
	act := setupActuator(t, actor, nil)
	act.Start()
	defer act.Stop()

	enqueue(t, act, ActionTurnOn, nil) // fails, dropped
	enqueue(t, act, ActionToggle, nil) // must still execute

	waitFor(t, time.Second, func() bool { return act.State() == true }, "loop survived failure")

	if !act.IsRunning() {
		t.Error("actuator should still be running after a failed command")
	}
}

func TestActuator_UnknownActionIsDropped(t *testing.T) {
	act := setupActuator(t, &switchActor{}, nil)
	act.Start()
	defer act.Stop()

	enqueue(t, act, Action("self_destruct"), nil)
	enqueue(t, act, ActionTurnOn, nil)

	waitFor(t, time.Second, func() bool { return act.State() == true }, "known command applied")
}

func TestActuator_ParamsApplyWithoutTransition(t *testing.T) {
	var changes atomic.Int32
	actor := &switchActor{level: 80}
	act := setupActuator(t, actor, func(old, new any) { changes.Add(1) })
	act.Start()
	defer act.Stop()

	enqueue(t, act, ActionSet, map[string]any{"level": 55.0})

	waitFor(t, time.Second, func() bool {
		params := act.Params()
		return params != nil && params["level"] == 55.0
	}, "parameter applied")

	if act.State() != false {
		t.Error("set must not flip the on/off state")
	}
	if changes.Load() != 0 {
		t.Error("set must not fire the change hook")
	}
}

func TestActuator_ParamsAreCopies(t *testing.T) {
	act := setupActuator(t, &switchActor{level: 80}, nil)

	params := act.Params()
	params["level"] = 999.0

	if got := act.Params()["level"]; got != 80.0 {
		t.Errorf("internal params mutated through copy: level = %v", got)
	}
}

func TestActuator_EnqueueFullQueue(t *testing.T) {
	act, err := NewActuator(ActuatorConfig{
		ID:           "a1",
		Name:         "Tiny Queue",
		Enabled:      true,
		InitialState: false,
		Actor:        &switchActor{},
		QueueSize:    1,
	})
	if err != nil {
		t.Fatalf("NewActuator: %v", err)
	}

	// Not started: the queue cannot drain.
	if err := act.Enqueue(NewCommand("a1", ActionTurnOn, nil, "test")); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}

	err = act.Enqueue(NewCommand("a1", ActionTurnOn, nil, "test"))
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("second enqueue error = %v, want ErrQueueFull", err)
	}
}

func TestActuator_StopIsResponsiveWhenIdle(t *testing.T) {
	act := setupActuator(t, &switchActor{}, nil)
	act.Start()

	start := time.Now()
	act.Stop()

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop took %v on an idle actuator", elapsed)
	}
	if act.IsRunning() {
		t.Error("expected stopped actuator")
	}
}

func TestNewActuator_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ActuatorConfig
	}{
		{"missing id", ActuatorConfig{Name: "A", Actor: &switchActor{}}},
		{"missing name", ActuatorConfig{ID: "a1", Actor: &switchActor{}}},
		{"nil actor", ActuatorConfig{ID: "a1", Name: "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewActuator(tt.cfg)
			if !errors.Is(err, ErrInvalidDevice) {
				t.Errorf("NewActuator() error = %v, want ErrInvalidDevice", err)
			}
		})
	}
}
