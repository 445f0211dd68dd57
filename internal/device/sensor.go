package device

import (
	"fmt"
	"sync"
	"time"
)

// Sampler produces one sensor value per call.
//
// Implementations simulate (or eventually read) the physical quantity and
// must be safe for concurrent use: the sensor loop samples while the hub
// may be applying feedback effects to the same source.
type Sampler interface {
	// Sample returns the next value, float64 or bool.
	Sample() (any, error)
}

// Sensor periodically samples a value and publishes it as a Reading on the
// shared readings channel.
//
// The loop never blocks on a full channel: a reading that cannot be
// delivered immediately is dropped with a warning. A sampler error is
// logged and the loop continues with the next interval.
type Sensor struct {
	lifecycle

	interval time.Duration
	sampler  Sampler
	readings chan<- Reading

	valueMu sync.RWMutex
	current any
}

// SensorConfig describes one sensor.
type SensorConfig struct {
	ID       string
	Name     string
	Enabled  bool
	Interval time.Duration
	Sampler  Sampler
	Readings chan<- Reading

	// Initial seeds the current value so reads before the first sample
	// return something sensible. Leave nil to start empty.
	Initial any

	// StopTimeout bounds Stop's join; zero means DefaultStopTimeout.
	StopTimeout time.Duration
	Logger      Logger
}

// NewSensor creates a Sensor from its configuration.
//
// Returns:
//   - *Sensor: Ready to Start
//   - error: ErrInvalidDevice if identity, interval, sampler or channel is missing
func NewSensor(cfg SensorConfig) (*Sensor, error) {
	if cfg.ID == "" || cfg.Name == "" {
		return nil, fmt.Errorf("%w: sensor requires id and name", ErrInvalidDevice)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: sensor %s requires a positive interval", ErrInvalidDevice, cfg.ID)
	}
	if cfg.Sampler == nil {
		return nil, fmt.Errorf("%w: sensor %s requires a sampler", ErrInvalidDevice, cfg.ID)
	}
	if cfg.Readings == nil {
		return nil, fmt.Errorf("%w: sensor %s requires a readings channel", ErrInvalidDevice, cfg.ID)
	}

	return &Sensor{
		lifecycle: newLifecycle(cfg.ID, cfg.Name, cfg.Enabled, cfg.StopTimeout, cfg.Logger),
		interval:  cfg.Interval,
		sampler:   cfg.Sampler,
		readings:  cfg.Readings,
		current:   cfg.Initial,
	}, nil
}

// Start launches the sampling loop. Disabled or already-running sensors
// are a logged no-op.
func (s *Sensor) Start() {
	s.start(s.run)
}

// Current returns the most recently sampled value. Before the first
// successful sample it returns the configured initial value, or nil if
// none was set.
func (s *Sensor) Current() any {
	s.valueMu.RLock()
	defer s.valueMu.RUnlock()
	return s.current
}

// run is the sensor loop: sample, store, publish, sleep.
func (s *Sensor) run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		value, err := s.sampler.Sample()
		if err != nil {
			s.log.Error("sensor sample failed", "device_id", s.id, "error", err)
		} else {
			s.valueMu.Lock()
			s.current = value
			s.valueMu.Unlock()

			s.publish(Reading{
				SensorID:   s.id,
				SensorName: s.name,
				Value:      value,
				Timestamp:  time.Now().UTC(),
			})
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// publish delivers a reading without ever blocking the loop.
func (s *Sensor) publish(r Reading) {
	select {
	case s.readings <- r:
	default:
		s.log.Warn("readings channel full, dropping reading",
			"device_id", s.id, "value", r.Value)
	}
}
