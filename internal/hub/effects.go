package hub

import (
	"github.com/hearth-home/hearth-core/internal/device"
	"github.com/hearth-home/hearth-core/internal/sim"
	"github.com/hearth-home/hearth-core/internal/state"
)

// Feedback applied per cycle so actuation shows up in sensor data. The
// "off" deltas model natural cooling and ambient dimming.
const (
	heatingDelta = 0.1
	coolingDelta = -0.05

	brightenDelta = 20.0
	dimDelta      = -5.0
)

// effect couples an actuator to the sensor source it influences.
type effect struct {
	actuator *device.Actuator
	apply    func(on bool)
}

// buildEffects links whichever actuator/sensor pairs are both present.
// The temperature source tracks the heater, the light source tracks the
// lamp.
func (h *Hub) buildEffects() {
	if heater, ok := h.actuators[state.RoleHeater]; ok {
		if src := h.rangeSource(state.RoleTemperature); src != nil {
			h.effects = append(h.effects, effect{
				actuator: heater,
				apply: func(on bool) {
					if on {
						src.Shift(heatingDelta)
					} else {
						src.Shift(coolingDelta)
					}
				},
			})
		}
	}
	if lamp, ok := h.actuators[state.RoleLightActuator]; ok {
		if src := h.rangeSource(state.RoleLight); src != nil {
			h.effects = append(h.effects, effect{
				actuator: lamp,
				apply: func(on bool) {
					if on {
						src.Shift(brightenDelta)
					} else {
						src.Shift(dimDelta)
					}
				},
			})
		}
	}
}

// applyEffects nudges the linked sensor sources based on current actuator
// state. Runs once per controller cycle.
func (h *Hub) applyEffects() {
	for _, ef := range h.effects {
		on, _ := ef.actuator.State().(bool)
		ef.apply(on)
	}
}

func (h *Hub) rangeSource(role string) *sim.RangeSource {
	return h.sources[role]
}
