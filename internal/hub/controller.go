package hub

import (
	"errors"
	"fmt"
	"time"

	"github.com/hearth-home/hearth-core/internal/device"
	"github.com/hearth-home/hearth-core/internal/state"
)

// controllerLoop drives the hub cycle until stop closes. A failed cycle
// is logged and followed by the error backoff instead of the normal
// interval; the loop itself never exits on error.
func (h *Hub) controllerLoop(stop <-chan struct{}) {
	h.log.Info("controller started", "interval", h.cycleInterval)

	for {
		select {
		case <-stop:
			h.log.Info("controller stopped")
			return
		default:
		}

		delay := h.cycleInterval
		if err := h.runCycle(); err != nil {
			h.log.Error("controller cycle failed", "error", err, "backoff", h.errorBackoff)
			delay = h.errorBackoff
		}

		timer := time.NewTimer(delay)
		select {
		case <-stop:
			timer.Stop()
			h.log.Info("controller stopped")
			return
		case <-timer.C:
		}
	}
}

// runCycle executes one pass of the control loop. A panic anywhere in the
// cycle is converted to an error at this boundary.
func (h *Hub) runCycle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	h.drainReadings()
	h.refreshState()

	snap := h.store.Snapshot()
	commands := h.engine.Evaluate(snap)
	h.routeCommands(commands)

	h.applyEffects()
	h.broadcastState(snap)
	return nil
}

// drainReadings moves every queued reading into the store without
// blocking. Readings are also forwarded to any registered sinks.
func (h *Hub) drainReadings() {
	for {
		select {
		case r := <-h.readings:
			role, ok := h.sensorRoles[r.SensorID]
			if !ok {
				h.log.Warn("reading from unknown sensor, discarding", "sensor_id", r.SensorID)
				continue
			}
			h.store.ApplyReading(role, r)
			h.forwardReading(role, r)
		default:
			return
		}
	}
}

// refreshState overwrites the store with each device's live value and
// liveness flag. Running after the drain means the freshest value wins
// when a queued reading and the live value disagree.
func (h *Hub) refreshState() {
	now := time.Now().UTC()
	for role, s := range h.sensors {
		h.store.UpsertSensor(role, state.SensorReading{
			Value:      s.Current(),
			SensorID:   s.ID(),
			SensorName: s.Name(),
			Timestamp:  now,
			Running:    s.IsRunning(),
		})
	}
	for role, a := range h.actuators {
		h.store.UpsertActuator(role, state.ActuatorState{
			State:    a.State(),
			DeviceID: a.ID(),
			Name:     a.Name(),
			Params:   a.Params(),
			Running:  a.IsRunning(),
		})
	}
}

// routeCommands delivers rule output to actuator queues. Undeliverable
// commands are dropped with a warning and an event; rules are never
// retried.
func (h *Hub) routeCommands(commands []device.Command) {
	for _, cmd := range commands {
		err := h.dispatch(cmd)
		if err == nil {
			continue
		}

		reason := "queue_full"
		if errors.Is(err, ErrActuatorNotFound) {
			reason = "unknown_actuator"
		}
		h.log.Warn("dropping command",
			"command_id", cmd.ID,
			"actuator", cmd.Actuator,
			"action", string(cmd.Action),
			"source", cmd.Source,
			"reason", reason)
		h.emitEvent(EventCommandDropped, cmd.Actuator, map[string]any{
			"command_id": cmd.ID,
			"action":     string(cmd.Action),
			"source":     cmd.Source,
			"reason":     reason,
		})
	}
}
