package state

import (
	"sync"
	"time"

	"github.com/hearth-home/hearth-core/internal/device"
)

// Store is the mutex-guarded aggregate state keyed by device role.
//
// Thread Safety: all methods are safe for concurrent use. Snapshot copies
// everything out under the read lock; writers hold the write lock for the
// duration of one entry update only.
type Store struct {
	mu        sync.RWMutex
	sensors   map[string]SensorReading
	actuators map[string]ActuatorState
	awayMode  bool
}

// NewStore creates an empty aggregate state.
func NewStore() *Store {
	return &Store{
		sensors:   make(map[string]SensorReading),
		actuators: make(map[string]ActuatorState),
	}
}

// ApplyReading records a drained sensor reading under its role.
// The running flag of an existing entry is preserved; readings do not
// carry liveness.
func (st *Store) ApplyReading(role string, r device.Reading) {
	st.mu.Lock()
	defer st.mu.Unlock()

	entry := SensorReading{
		Value:      r.Value,
		SensorID:   r.SensorID,
		SensorName: r.SensorName,
		Timestamp:  r.Timestamp,
	}
	if prev, ok := st.sensors[role]; ok {
		entry.Running = prev.Running
	}
	st.sensors[role] = entry
}

// UpsertSensor overwrites a sensor role with a live-refreshed entry.
func (st *Store) UpsertSensor(role string, entry SensorReading) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sensors[role] = entry.clone()
}

// UpsertActuator overwrites an actuator role with a live-refreshed entry.
func (st *Store) UpsertActuator(role string, entry ActuatorState) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.actuators[role] = entry.clone()
}

// SetAwayMode flips the away flag.
func (st *Store) SetAwayMode(enabled bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.awayMode = enabled
}

// AwayMode reports the away flag.
func (st *Store) AwayMode() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.awayMode
}

// Snapshot returns an independent copy of the aggregate state.
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	snap := Snapshot{
		Sensors:   make(map[string]SensorReading, len(st.sensors)),
		Actuators: make(map[string]ActuatorState, len(st.actuators)),
		AwayMode:  st.awayMode,
		TakenAt:   time.Now().UTC(),
	}
	for role, entry := range st.sensors {
		snap.Sensors[role] = entry.clone()
	}
	for role, entry := range st.actuators {
		snap.Actuators[role] = entry.clone()
	}
	return snap
}
