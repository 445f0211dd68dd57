// Package device provides the simulated device runtime for Hearth Core.
//
// Every virtual device shares one lifecycle: a goroutine-backed loop that is
// started, observed, and stopped with a bounded join. Sensors and actuators
// build on that lifecycle with variant-specific behaviour supplied through
// small interfaces rather than inheritance.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────────┐
//	│                         Device Runtime                            │
//	│                                                                   │
//	│  ┌──────────────┐                         ┌──────────────┐        │
//	│  │    Sensor    │                         │   Actuator   │        │
//	│  │ (sensor.go)  │                         │ (actuator.go)│        │
//	│  │              │                         │              │        │
//	│  │ • Sampler    │                         │ • Actor      │        │
//	│  │ • sample loop│                         │ • command    │        │
//	│  │ • publish    │                         │   queue loop │        │
//	│  └──────┬───────┘                         └──────▲───────┘        │
//	│         │          ┌──────────────┐              │                │
//	│         └─────────▶│  lifecycle   │◀─────────────┘                │
//	│                    │ (device.go)  │                               │
//	│                    │ start/stop/  │                               │
//	│                    │ bounded join │                               │
//	│                    └──────────────┘                               │
//	└─────────┬─────────────────────────────────────────▲───────────────┘
//	          │ Reading channel              Command queue│
//	          ▼                                           │
//	┌──────────────────────┐                  ┌──────────────────────┐
//	│    Hub controller    │─────────────────▶│   Enqueue(Command)   │
//	└──────────────────────┘                  └──────────────────────┘
//
// # Key Types
//
//   - Sensor: samples a value on an interval and publishes Readings
//   - Actuator: consumes Commands from a private queue and holds a state
//   - Sampler: variant behaviour producing sensor values
//   - Actor: variant behaviour resolving commands into actuator states
//   - Reading: one sampled value with sensor identity and timestamp
//   - Command: one requested actuator action with optional parameters
//
// # Usage
//
//	readings := make(chan device.Reading, 256)
//
//	sensor, err := device.NewSensor(device.SensorConfig{
//	    ID:       "temp_01",
//	    Name:     "Temperature Sensor",
//	    Enabled:  true,
//	    Interval: 2 * time.Second,
//	    Sampler:  source,
//	    Readings: readings,
//	    Logger:   log,
//	})
//	if err != nil {
//	    return err
//	}
//	sensor.Start()
//	defer sensor.Stop()
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. The running flag, the
// current sensor value and the actuator state are each guarded by their own
// mutex. Stop waits for the loop goroutine with a bounded timeout and never
// blocks forever.
package device
