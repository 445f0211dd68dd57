package sim

import (
	"fmt"
	"sync"

	"github.com/hearth-home/hearth-core/internal/device"
)

// Parameter keys understood by the stock actors.
const (
	ParamBrightness        = "brightness"
	ParamTargetTemperature = "target_temperature"
)

// Light is the actor behind the light actuator: an on/off switch with a
// brightness percentage that applies independently of the switch state.
type Light struct {
	mu         sync.Mutex
	brightness float64
}

// NewLight creates a light actor with an initial brightness (0-100).
func NewLight(brightness float64) *Light {
	return &Light{brightness: clamp(brightness, 0, 100)}
}

// Apply resolves switch actions and brightness updates.
func (l *Light) Apply(cmd device.Command, current any) (any, error) {
	if b, ok, err := numberParam(cmd.Params, ParamBrightness); err != nil {
		return nil, err
	} else if ok {
		l.mu.Lock()
		l.brightness = clamp(b, 0, 100)
		l.mu.Unlock()
	}

	return switchState(cmd.Action, current)
}

// Params reports the current brightness.
func (l *Light) Params() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return map[string]any{ParamBrightness: l.brightness}
}

// Heater is the actor behind the heater actuator: an on/off switch with a
// target temperature setpoint.
type Heater struct {
	mu     sync.Mutex
	target float64
}

// NewHeater creates a heater actor with an initial target temperature.
func NewHeater(target float64) *Heater {
	return &Heater{target: target}
}

// Apply resolves switch actions and target temperature updates.
func (h *Heater) Apply(cmd device.Command, current any) (any, error) {
	if target, ok, err := numberParam(cmd.Params, ParamTargetTemperature); err != nil {
		return nil, err
	} else if ok {
		h.mu.Lock()
		h.target = target
		h.mu.Unlock()
	}

	return switchState(cmd.Action, current)
}

// Params reports the current target temperature.
func (h *Heater) Params() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return map[string]any{ParamTargetTemperature: h.target}
}

// Target returns the current setpoint.
func (h *Heater) Target() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target
}

// Alarm is the actor behind the alarm actuator. Activation from an
// inactive state increments the alert counter.
type Alarm struct {
	mu     sync.Mutex
	alerts int
}

// NewAlarm creates an alarm actor with a zero alert count.
func NewAlarm() *Alarm {
	return &Alarm{}
}

// Apply resolves alarm actions. Activate/deactivate are aliases of
// turn_on/turn_off; only a real inactive-to-active transition counts as a
// new alert.
func (a *Alarm) Apply(cmd device.Command, current any) (any, error) {
	next, err := switchState(cmd.Action, current)
	if err != nil {
		return nil, err
	}

	on, _ := current.(bool)
	if !on && next == true {
		a.mu.Lock()
		a.alerts++
		a.mu.Unlock()
	}

	return next, nil
}

// Params reports the lifetime alert count.
func (a *Alarm) Params() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return map[string]any{"alert_count": a.alerts}
}

// switchState maps the shared on/off action set onto a boolean state.
func switchState(action device.Action, current any) (any, error) {
	on, _ := current.(bool)

	switch action {
	case device.ActionTurnOn, device.ActionActivate:
		return true, nil
	case device.ActionTurnOff, device.ActionDeactivate:
		return false, nil
	case device.ActionToggle:
		return !on, nil
	case device.ActionSet:
		// Parameter-only update; the switch state is untouched.
		return current, nil
	default:
		return nil, fmt.Errorf("%w: %s", device.ErrUnknownAction, action)
	}
}

// numberParam extracts an optional numeric parameter. YAML and Go callers
// may hand over ints where JSON bodies produce float64.
func numberParam(params map[string]any, key string) (float64, bool, error) {
	v, ok := params[key]
	if !ok {
		return 0, false, nil
	}

	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int:
		return float64(n), true, nil
	default:
		return 0, false, fmt.Errorf("param %s: expected number, got %T", key, v)
	}
}
