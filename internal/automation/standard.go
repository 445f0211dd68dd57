package automation

import (
	"github.com/hearth-home/hearth-core/internal/device"
	"github.com/hearth-home/hearth-core/internal/state"
)

// Thresholds are the tunables of the standard household rule set.
type Thresholds struct {
	// TemperatureLow turns the heater on below this value.
	TemperatureLow float64

	// TemperatureHigh turns the heater off above this value.
	TemperatureHigh float64

	// LightThreshold is the light level below which a room counts as dark.
	LightThreshold float64
}

// StandardRules builds the stock household rule set.
//
// Every condition checks that the devices it reads and targets are
// actually present, so a trimmed-down inventory silently disables the
// rules that no longer apply.
//
// The set, in evaluation order:
//
//	0 security_alarm   motion while away, alarm off     → activate alarm
//	1 temp_low         cold and heater off              → heater on
//	1 temp_high        warm and heater on               → heater off
//	2 motion_light     motion in a dark room, light off → light on
//	3 no_motion_light  no motion, light on              → light off
func StandardRules(t Thresholds) []Rule {
	return []Rule{
		{
			ID:       "security_alarm",
			Name:     "Intrusion Alarm",
			Priority: 0,
			When: func(s state.Snapshot) bool {
				return s.AwayMode &&
					s.HasSensor(state.RoleMotion) && s.SensorBool(state.RoleMotion) &&
					s.HasActuator(state.RoleAlarm) && !s.ActuatorOn(state.RoleAlarm)
			},
			Then: func(s state.Snapshot) []device.Command {
				return []device.Command{
					device.NewCommand(state.RoleAlarm, device.ActionActivate, nil, "rule:security_alarm"),
				}
			},
		},
		{
			ID:       "temp_low",
			Name:     "Heating On",
			Priority: 1,
			When: func(s state.Snapshot) bool {
				temp, ok := s.SensorNumber(state.RoleTemperature)
				return ok && temp < t.TemperatureLow &&
					s.HasActuator(state.RoleHeater) && !s.ActuatorOn(state.RoleHeater)
			},
			Then: func(s state.Snapshot) []device.Command {
				return []device.Command{
					device.NewCommand(state.RoleHeater, device.ActionTurnOn, nil, "rule:temp_low"),
				}
			},
		},
		{
			ID:       "temp_high",
			Name:     "Heating Off",
			Priority: 1,
			When: func(s state.Snapshot) bool {
				temp, ok := s.SensorNumber(state.RoleTemperature)
				return ok && temp > t.TemperatureHigh && s.ActuatorOn(state.RoleHeater)
			},
			Then: func(s state.Snapshot) []device.Command {
				return []device.Command{
					device.NewCommand(state.RoleHeater, device.ActionTurnOff, nil, "rule:temp_high"),
				}
			},
		},
		{
			ID:       "motion_light",
			Name:     "Light On With Motion",
			Priority: 2,
			When: func(s state.Snapshot) bool {
				if !s.HasSensor(state.RoleMotion) || !s.SensorBool(state.RoleMotion) {
					return false
				}
				level, ok := s.SensorNumber(state.RoleLight)
				return ok && level < t.LightThreshold &&
					s.HasActuator(state.RoleLightActuator) && !s.ActuatorOn(state.RoleLightActuator)
			},
			Then: func(s state.Snapshot) []device.Command {
				return []device.Command{
					device.NewCommand(state.RoleLightActuator, device.ActionTurnOn, nil, "rule:motion_light"),
				}
			},
		},
		{
			ID:       "no_motion_light",
			Name:     "Light Off Without Motion",
			Priority: 3,
			When: func(s state.Snapshot) bool {
				return s.HasSensor(state.RoleMotion) && !s.SensorBool(state.RoleMotion) &&
					s.ActuatorOn(state.RoleLightActuator)
			},
			Then: func(s state.Snapshot) []device.Command {
				return []device.Command{
					device.NewCommand(state.RoleLightActuator, device.ActionTurnOff, nil, "rule:no_motion_light"),
				}
			},
		},
	}
}
