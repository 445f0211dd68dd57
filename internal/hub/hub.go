package hub

import (
	"fmt"
	"sync"
	"time"

	"github.com/hearth-home/hearth-core/internal/automation"
	"github.com/hearth-home/hearth-core/internal/device"
	"github.com/hearth-home/hearth-core/internal/infrastructure/config"
	"github.com/hearth-home/hearth-core/internal/sim"
	"github.com/hearth-home/hearth-core/internal/state"
)

// Device identities for the simulated household. IDs are stable so
// readings, history entries and telemetry stay correlatable across runs.
const (
	sensorIDTemperature = "temp_01"
	sensorIDLight       = "light_01"
	sensorIDMotion      = "motion_01"

	actuatorIDLight  = "light_act_01"
	actuatorIDHeater = "heater_01"
	actuatorIDAlarm  = "alarm_01"
)

// Hub owns the device runtimes, the aggregate state store and the rule
// engine, and runs the controller that ties them together.
type Hub struct {
	log Logger

	cycleInterval time.Duration
	errorBackoff  time.Duration
	stopTimeout   time.Duration

	readings    chan device.Reading
	sensors     map[string]*device.Sensor   // keyed by role
	actuators   map[string]*device.Actuator // keyed by role
	sensorRoles map[string]string           // sensor ID -> role
	sources     map[string]*sim.RangeSource // roles with a continuous source

	store   *state.Store
	engine  *automation.Engine
	effects []effect

	mu           sync.Mutex
	running      bool
	stopC        chan struct{}
	done         chan struct{}
	startedAt    time.Time
	broadcaster  Broadcaster
	eventSinks   []EventSink
	readingSinks []ReadingSink
}

// New builds a hub from configuration. Disabled devices are left out of
// the inventory entirely; the standard rules degrade gracefully when the
// devices they depend on are missing.
//
// Parameters:
//   - cfg: full application configuration (must be non-nil)
//   - logger: structured logger, or nil for no logging
//
// Returns:
//   - *Hub: the assembled hub, ready to Start
//   - error: if cfg is nil or a device rejects its configuration
func New(cfg *config.Config, logger Logger) (*Hub, error) {
	if cfg == nil {
		return nil, fmt.Errorf("hub: config is required")
	}
	if logger == nil {
		logger = noopLogger{}
	}

	h := &Hub{
		log:           logger,
		cycleInterval: cfg.Hub.CycleInterval,
		errorBackoff:  cfg.Hub.ErrorBackoff,
		stopTimeout:   cfg.Hub.StopTimeout,
		readings:      make(chan device.Reading, cfg.Hub.ReadingsBuffer),
		sensors:       make(map[string]*device.Sensor),
		actuators:     make(map[string]*device.Actuator),
		sensorRoles:   make(map[string]string),
		sources:       make(map[string]*sim.RangeSource),
		store:         state.NewStore(),
		engine:        automation.NewEngine(logger),
	}
	if h.cycleInterval <= 0 {
		h.cycleInterval = 500 * time.Millisecond
	}
	if h.errorBackoff <= 0 {
		h.errorBackoff = time.Second
	}
	if h.stopTimeout <= 0 {
		h.stopTimeout = device.DefaultStopTimeout
	}

	if err := h.buildDevices(cfg); err != nil {
		return nil, err
	}
	h.buildEffects()

	for _, r := range automation.StandardRules(automation.Thresholds{
		TemperatureLow:  cfg.Rules.TemperatureLow,
		TemperatureHigh: cfg.Rules.TemperatureHigh,
		LightThreshold:  cfg.Rules.LightThreshold,
	}) {
		if err := h.engine.Add(r); err != nil {
			return nil, fmt.Errorf("hub: register rule %q: %w", r.ID, err)
		}
	}

	return h, nil
}

func (h *Hub) buildDevices(cfg *config.Config) error {
	queueSize := cfg.Hub.CommandBuffer

	if sc := cfg.Sensors.Temperature; sc.Enabled {
		src := sim.NewRangeSource(sc.InitialValue, sc.MinValue, sc.MaxValue, sc.VariationRange)
		if err := h.addSensor(state.RoleTemperature, sensorIDTemperature, "Temperature Sensor", sc.UpdateInterval, sc.InitialValue, src); err != nil {
			return err
		}
		h.sources[state.RoleTemperature] = src
	}
	if sc := cfg.Sensors.Light; sc.Enabled {
		src := sim.NewRangeSource(sc.InitialValue, sc.MinValue, sc.MaxValue, sc.VariationRange)
		if err := h.addSensor(state.RoleLight, sensorIDLight, "Light Sensor", sc.UpdateInterval, sc.InitialValue, src); err != nil {
			return err
		}
		h.sources[state.RoleLight] = src
	}
	if sc := cfg.Sensors.Motion; sc.Enabled {
		src := sim.NewMotionSource(sc.MotionProbability)
		if err := h.addSensor(state.RoleMotion, sensorIDMotion, "Motion Sensor", sc.UpdateInterval, false, src); err != nil {
			return err
		}
	}

	if ac := cfg.Actuators.Light; ac.Enabled {
		actor := sim.NewLight(float64(ac.Brightness))
		if err := h.addActuator(state.RoleLightActuator, actuatorIDLight, "Light Actuator", ac.InitialState, queueSize, actor); err != nil {
			return err
		}
	}
	if ac := cfg.Actuators.Heater; ac.Enabled {
		actor := sim.NewHeater(ac.TargetTemperature)
		if err := h.addActuator(state.RoleHeater, actuatorIDHeater, "Heater Actuator", ac.InitialState, queueSize, actor); err != nil {
			return err
		}
	}
	if ac := cfg.Actuators.Alarm; ac.Enabled {
		actor := sim.NewAlarm()
		if err := h.addActuator(state.RoleAlarm, actuatorIDAlarm, "Alarm Actuator", ac.InitialState, queueSize, actor); err != nil {
			return err
		}
	}

	return nil
}

func (h *Hub) addSensor(role, id, name string, interval time.Duration, initial any, sampler device.Sampler) error {
	s, err := device.NewSensor(device.SensorConfig{
		ID:          id,
		Name:        name,
		Enabled:     true,
		Interval:    interval,
		Initial:     initial,
		Sampler:     sampler,
		Readings:    h.readings,
		StopTimeout: h.stopTimeout,
		Logger:      h.log,
	})
	if err != nil {
		return fmt.Errorf("hub: build sensor %s: %w", id, err)
	}
	h.sensors[role] = s
	h.sensorRoles[id] = role
	return nil
}

func (h *Hub) addActuator(role, id, name string, initial bool, queueSize int, actor device.Actor) error {
	a, err := device.NewActuator(device.ActuatorConfig{
		ID:           id,
		Name:         name,
		Enabled:      true,
		InitialState: initial,
		QueueSize:    queueSize,
		Actor:        actor,
		OnChange:     h.changeHook(role, id),
		StopTimeout:  h.stopTimeout,
		Logger:       h.log,
	})
	if err != nil {
		return fmt.Errorf("hub: build actuator %s: %w", id, err)
	}
	h.actuators[role] = a
	return nil
}

// changeHook emits an actuator event whenever the device's state actually
// transitions. The hook runs on the actuator goroutine.
func (h *Hub) changeHook(role, deviceID string) device.ChangeHook {
	return func(old, next any) {
		h.emitEvent(EventActuatorState, role, map[string]any{
			"device_id": deviceID,
			"from":      old,
			"to":        next,
		})
	}
}

// SetBroadcaster attaches a snapshot/event broadcaster. Call before Start.
func (h *Hub) SetBroadcaster(b Broadcaster) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcaster = b
}

// AddEventSink attaches an event consumer. Call before Start.
func (h *Hub) AddEventSink(s EventSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.eventSinks = append(h.eventSinks, s)
}

// AddReadingSink attaches a reading consumer. Call before Start.
func (h *Hub) AddReadingSink(s ReadingSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readingSinks = append(h.readingSinks, s)
}

// AddRule registers an additional automation rule alongside the standard
// set. Rules added after Start take effect on the next cycle.
func (h *Hub) AddRule(r automation.Rule) error {
	return h.engine.Add(r)
}

// Start brings up every device and then the controller. Calling Start on
// a hub that is already running logs a warning and changes nothing.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		h.log.Warn("hub already running, ignoring start")
		return
	}
	h.running = true
	h.stopC = make(chan struct{})
	h.done = make(chan struct{})
	h.startedAt = time.Now()
	stop := h.stopC
	done := h.done
	h.mu.Unlock()

	for role, s := range h.sensors {
		s.Start()
		h.log.Debug("sensor started", "role", role, "id", s.ID())
	}
	for role, a := range h.actuators {
		a.Start()
		h.log.Debug("actuator started", "role", role, "id", a.ID())
	}

	go func() {
		defer close(done)
		h.controllerLoop(stop)
	}()

	h.log.Info("hub started",
		"sensors", len(h.sensors),
		"actuators", len(h.actuators),
		"cycle_interval", h.cycleInterval)
	h.emitEvent(EventHubStarted, "hub", nil)
}

// Stop halts the controller first, then every device, waiting a bounded
// time for each. Calling Stop on a stopped hub logs a warning.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		h.log.Warn("hub not running, ignoring stop")
		return
	}
	h.running = false
	close(h.stopC)
	done := h.done
	h.startedAt = time.Time{}
	h.mu.Unlock()

	select {
	case <-done:
	case <-time.After(h.stopTimeout):
		h.log.Warn("controller did not stop within timeout", "timeout", h.stopTimeout)
	}

	for role, s := range h.sensors {
		s.Stop()
		h.log.Debug("sensor stopped", "role", role)
	}
	for role, a := range h.actuators {
		a.Stop()
		h.log.Debug("actuator stopped", "role", role)
	}

	h.log.Info("hub stopped")
	h.emitEvent(EventHubStopped, "hub", nil)
}

// IsRunning reports whether the controller is active.
func (h *Hub) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// State returns a deep copy of the aggregate state.
func (h *Hub) State() state.Snapshot {
	return h.store.Snapshot()
}

// SensorStatus is the live view of one sensor in a Status report.
type SensorStatus struct {
	Value   any  `json:"value"`
	Running bool `json:"running"`
}

// ActuatorStatus is the live view of one actuator in a Status report.
type ActuatorStatus struct {
	State   any  `json:"state"`
	Running bool `json:"running"`
}

// Status is the composite health view returned by the hub.
type Status struct {
	Running       bool                      `json:"running"`
	UptimeSeconds float64                   `json:"uptime_seconds"`
	Sensors       map[string]SensorStatus   `json:"sensors"`
	Actuators     map[string]ActuatorStatus `json:"actuators"`
	AwayMode      bool                      `json:"away_mode"`
	State         state.Snapshot            `json:"state"`
}

// Status reports hub run state, per-device liveness and the current
// aggregate snapshot in one call.
func (h *Hub) Status() Status {
	h.mu.Lock()
	running := h.running
	startedAt := h.startedAt
	h.mu.Unlock()

	st := Status{
		Running:   running,
		Sensors:   make(map[string]SensorStatus, len(h.sensors)),
		Actuators: make(map[string]ActuatorStatus, len(h.actuators)),
		AwayMode:  h.store.AwayMode(),
		State:     h.store.Snapshot(),
	}
	if running && !startedAt.IsZero() {
		st.UptimeSeconds = time.Since(startedAt).Seconds()
	}
	for role, s := range h.sensors {
		st.Sensors[role] = SensorStatus{Value: s.Current(), Running: s.IsRunning()}
	}
	for role, a := range h.actuators {
		st.Actuators[role] = ActuatorStatus{State: a.State(), Running: a.IsRunning()}
	}
	return st
}

// Rules returns metadata for every registered automation rule.
func (h *Hub) Rules() []automation.RuleInfo {
	return h.engine.Rules()
}

// ActuatorRoles returns the roles of all configured actuators.
func (h *Hub) ActuatorRoles() []string {
	roles := make([]string, 0, len(h.actuators))
	for role := range h.actuators {
		roles = append(roles, role)
	}
	return roles
}

// SendCommand queues a command for the named actuator and returns the
// command ID.
//
// Returns:
//   - string: the generated command ID on success
//   - error: ErrActuatorNotFound if the role is unknown, or
//     device.ErrQueueFull if the actuator cannot accept more work
func (h *Hub) SendCommand(actuator string, action device.Action, params map[string]any, source string) (string, error) {
	cmd := device.NewCommand(actuator, action, params, source)
	if err := h.dispatch(cmd); err != nil {
		return "", err
	}
	h.log.Info("command accepted",
		"command_id", cmd.ID,
		"actuator", actuator,
		"action", string(action),
		"source", source)
	return cmd.ID, nil
}

func (h *Hub) dispatch(cmd device.Command) error {
	act, ok := h.actuators[cmd.Actuator]
	if !ok {
		return fmt.Errorf("%w: %s", ErrActuatorNotFound, cmd.Actuator)
	}
	return act.Enqueue(cmd)
}

// SetAwayMode switches away mode. Disabling it stands the alarm down
// through the normal command path so the transition is observable like
// any other actuation.
func (h *Hub) SetAwayMode(enabled bool) {
	h.store.SetAwayMode(enabled)
	h.log.Info("away mode changed", "enabled", enabled)
	h.emitEvent(EventAwayMode, "hub", map[string]any{"enabled": enabled})

	if enabled {
		return
	}
	if _, ok := h.actuators[state.RoleAlarm]; !ok {
		return
	}
	cmd := device.NewCommand(state.RoleAlarm, device.ActionDeactivate, nil, "away_mode")
	if err := h.dispatch(cmd); err != nil {
		h.log.Warn("failed to stand down alarm", "error", err)
	}
}

// AwayMode reports whether away mode is active.
func (h *Hub) AwayMode() bool {
	return h.store.AwayMode()
}

func (h *Hub) emitEvent(kind EventKind, subject string, detail map[string]any) {
	e := newEvent(kind, subject, detail)

	h.mu.Lock()
	sinks := make([]EventSink, len(h.eventSinks))
	copy(sinks, h.eventSinks)
	b := h.broadcaster
	h.mu.Unlock()

	for _, s := range sinks {
		s.RecordEvent(e)
	}
	if b != nil {
		b.Broadcast(ChannelEvents, e)
	}
}

func (h *Hub) forwardReading(role string, r device.Reading) {
	h.mu.Lock()
	sinks := make([]ReadingSink, len(h.readingSinks))
	copy(sinks, h.readingSinks)
	h.mu.Unlock()

	for _, s := range sinks {
		s.RecordReading(role, r)
	}
}

func (h *Hub) broadcastState(snap state.Snapshot) {
	h.mu.Lock()
	b := h.broadcaster
	h.mu.Unlock()
	if b != nil {
		b.Broadcast(ChannelState, snap)
	}
}
