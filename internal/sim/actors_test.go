package sim

import (
	"errors"
	"testing"

	"github.com/hearth-home/hearth-core/internal/device"
)

func applyAction(t *testing.T, actor device.Actor, action device.Action, params map[string]any, current any) any {
	t.Helper()

	next, err := actor.Apply(device.Command{Action: action, Params: params}, current)
	if err != nil {
		t.Fatalf("Apply(%s): %v", action, err)
	}
	return next
}

func TestLight_SwitchActions(t *testing.T) {
	light := NewLight(80)

	if got := applyAction(t, light, device.ActionTurnOn, nil, false); got != true {
		t.Errorf("turn_on = %v, want true", got)
	}
	if got := applyAction(t, light, device.ActionTurnOff, nil, true); got != false {
		t.Errorf("turn_off = %v, want false", got)
	}
	if got := applyAction(t, light, device.ActionToggle, nil, false); got != true {
		t.Errorf("toggle from off = %v, want true", got)
	}
	if got := applyAction(t, light, device.ActionToggle, nil, true); got != false {
		t.Errorf("toggle from on = %v, want false", got)
	}
}

func TestLight_BrightnessParam(t *testing.T) {
	light := NewLight(80)

	// Brightness rides along without forcing a transition.
	next := applyAction(t, light, device.ActionSet, map[string]any{ParamBrightness: 40.0}, true)
	if next != true {
		t.Errorf("set changed switch state to %v", next)
	}
	if got := light.Params()[ParamBrightness]; got != 40.0 {
		t.Errorf("brightness = %v, want 40.0", got)
	}

	// Out-of-range values clamp.
	applyAction(t, light, device.ActionSet, map[string]any{ParamBrightness: 250.0}, true)
	if got := light.Params()[ParamBrightness]; got != 100.0 {
		t.Errorf("brightness = %v, want clamped 100.0", got)
	}
}

func TestLight_InvalidBrightness(t *testing.T) {
	light := NewLight(80)

	_, err := light.Apply(device.Command{
		Action: device.ActionSet,
		Params: map[string]any{ParamBrightness: "bright"},
	}, false)
	if err == nil {
		t.Error("expected error for non-numeric brightness")
	}
}

func TestLight_UnknownAction(t *testing.T) {
	light := NewLight(80)

	_, err := light.Apply(device.Command{Action: "warp"}, false)
	if !errors.Is(err, device.ErrUnknownAction) {
		t.Errorf("error = %v, want ErrUnknownAction", err)
	}
}

func TestHeater_TargetTemperature(t *testing.T) {
	heater := NewHeater(20.0)

	next := applyAction(t, heater, device.ActionTurnOn,
		map[string]any{ParamTargetTemperature: 22.5}, false)
	if next != true {
		t.Errorf("turn_on = %v, want true", next)
	}
	if got := heater.Target(); got != 22.5 {
		t.Errorf("Target() = %v, want 22.5", got)
	}

	// Integers are accepted too (config-sourced commands).
	applyAction(t, heater, device.ActionSet, map[string]any{ParamTargetTemperature: 19}, true)
	if got := heater.Target(); got != 19.0 {
		t.Errorf("Target() = %v, want 19.0", got)
	}
}

func TestAlarm_ActivationCountsAlerts(t *testing.T) {
	alarm := NewAlarm()

	if got := applyAction(t, alarm, device.ActionActivate, nil, false); got != true {
		t.Errorf("activate = %v, want true", got)
	}
	// Re-activating an active alarm is not a new alert.
	applyAction(t, alarm, device.ActionActivate, nil, true)
	applyAction(t, alarm, device.ActionDeactivate, nil, true)
	applyAction(t, alarm, device.ActionActivate, nil, false)

	if got := alarm.Params()["alert_count"]; got != 2 {
		t.Errorf("alert_count = %v, want 2", got)
	}
}

func TestAlarm_DeactivateAlias(t *testing.T) {
	alarm := NewAlarm()

	if got := applyAction(t, alarm, device.ActionTurnOff, nil, true); got != false {
		t.Errorf("turn_off = %v, want false", got)
	}
	if got := applyAction(t, alarm, device.ActionDeactivate, nil, true); got != false {
		t.Errorf("deactivate = %v, want false", got)
	}
}
