// Package state holds the hub's aggregate view of every simulated device.
//
// The Store is a mutex-guarded map keyed by device role (temperature,
// heater, ...). Writers are the hub controller: drained sensor readings and
// per-cycle live refreshes. Readers only ever see Snapshots, deep copies
// taken under the lock, so a reader can never observe a partially rebuilt
// aggregate and cannot reach back into the store through a snapshot.
//
// Rule conditions read through the Snapshot accessors (SensorNumber,
// SensorBool, ActuatorOn) which fold "role absent" into their zero results,
// keeping conditions nil-safe and deterministic.
package state
