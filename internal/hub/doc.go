// Package hub wires the simulated devices, the aggregate state and the
// rule engine into one controllable unit.
//
// The hub owns the shared readings channel, one Sensor/Actuator per
// configured role, the state store and the rule engine. Its controller
// goroutine runs a fixed cycle:
//
//	┌────────────────────────── controller cycle ──────────────────────────┐
//	│ 1. drain queued readings into the store (non-blocking)               │
//	│ 2. live-refresh sensor values and actuator states (refresh wins)     │
//	│ 3. snapshot the store                                                │
//	│ 4. evaluate rules against the snapshot (outside the lock)            │
//	│ 5. route commands to actuator queues (unknown target: warn + drop)   │
//	│ 6. apply feedback effects (heater warms room, lamp brightens it)     │
//	│ 7. broadcast the snapshot, then sleep the cycle interval             │
//	└──────────────────────────────────────────────────────────────────────┘
//
// A panic or error inside a cycle is caught at the cycle boundary, logged
// and followed by a backoff sleep; the controller itself never dies.
//
// External mutations go through exactly two entry points: SendCommand
// (manual actuator control) and SetAwayMode. Reads go through State
// (snapshot copy) and Status (composite health view). Optional sinks
// observe the hub: a Broadcaster receives per-cycle snapshots and events,
// EventSinks receive the event stream, ReadingSinks receive every drained
// reading.
package hub
