package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearth-home/hearth-core/internal/device"
	"github.com/hearth-home/hearth-core/internal/hub"
	"github.com/hearth-home/hearth-core/internal/infrastructure/mqtt"
)

// commandSource tags commands that arrived over MQTT so event logs and
// audit trails can distinguish them from rule and API commands.
const commandSource = "mqtt"

// CommandSender is the hub surface the bridge needs for inbound commands.
// Satisfied by *hub.Hub.
type CommandSender interface {
	SendCommand(actuator string, action device.Action, params map[string]any, source string) (string, error)
}

// MQTTClient is the broker surface the bridge needs.
// Satisfied by *mqtt.Client. This interface allows mocking in tests.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// SeriesWriter is the time-series surface the bridge needs.
// Satisfied by *influxdb.Client.
type SeriesWriter interface {
	WriteReading(role, sensorID string, value float64, ts time.Time) error
	WriteActuatorState(role, deviceID string, on bool, ts time.Time) error
}

// Logger is the minimal logging interface the bridge depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds the dependencies for creating a bridge.
type Options struct {
	// Hub receives commands parsed from MQTT set messages. Required.
	Hub CommandSender

	// Broker is the MQTT client. Optional; nil disables the MQTT leg.
	Broker MQTTClient

	// Series is the time-series writer. Optional; nil disables the
	// InfluxDB leg.
	Series SeriesWriter

	// Topics builds topic strings. The zero value uses the default base.
	Topics mqtt.Topics

	// QoS is the quality of service for published messages.
	QoS byte

	// Logger is optional structured logging.
	Logger Logger
}

// Bridge fans hub readings and events out to MQTT and InfluxDB, and feeds
// actuator set messages back into the hub as commands.
//
// It implements hub.ReadingSink and hub.EventSink. The bridge is passive:
// it owns no goroutines, so there is nothing to stop. Lifecycle is bounded
// by the broker and writer handed in.
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	hub    CommandSender
	broker MQTTClient
	series SeriesWriter
	topics mqtt.Topics
	qos    byte
	log    Logger
}

// readingPayload is the JSON body published for each sensor reading.
type readingPayload struct {
	SensorID   string    `json:"sensor_id"`
	SensorName string    `json:"sensor_name"`
	Value      any       `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

// actuatorStatePayload is the retained JSON body published on transitions.
type actuatorStatePayload struct {
	DeviceID string    `json:"device_id,omitempty"`
	Role     string    `json:"role"`
	State    any       `json:"state"`
	At       time.Time `json:"at"`
}

// setPayload is the JSON body accepted on {base}/actuator/{role}/set.
type setPayload struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// New creates a telemetry bridge.
//
// Parameters:
//   - opts: Dependencies. Hub is required; at least one of Broker or
//     Series must be set.
//
// Returns:
//   - *Bridge: Ready to register on the hub via AddReadingSink/AddEventSink
//   - error: If required dependencies are missing
func New(opts Options) (*Bridge, error) {
	if opts.Hub == nil {
		return nil, fmt.Errorf("telemetry: hub is required")
	}
	if opts.Broker == nil && opts.Series == nil {
		return nil, fmt.Errorf("telemetry: at least one of broker or series writer is required")
	}

	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}

	return &Bridge{
		hub:    opts.Hub,
		broker: opts.Broker,
		series: opts.Series,
		topics: opts.Topics,
		qos:    opts.QoS,
		log:    log,
	}, nil
}

// Start subscribes to the actuator set topic so external publishers can
// drive actuators. No-op when the bridge has no broker.
//
// Returns:
//   - error: If the subscription fails
func (b *Bridge) Start() error {
	if b.broker == nil {
		b.log.Info("mqtt disabled, actuator set topic not subscribed")
		return nil
	}

	topic := b.topics.AllActuatorSets()
	if err := b.broker.Subscribe(topic, b.qos, b.handleSet); err != nil {
		return fmt.Errorf("telemetry: subscribe to set topic: %w", err)
	}
	b.log.Info("subscribed to actuator commands", "topic", topic)

	return nil
}

// RecordReading implements hub.ReadingSink.
//
// The reading publishes to {base}/sensor/{role}/reading and, when the
// value is numeric, writes to the hearth_reading measurement. Runs on the
// hub controller goroutine, so both legs must stay non-blocking: the
// publish is skipped while disconnected and the series write is batched.
func (b *Bridge) RecordReading(role string, r device.Reading) {
	if b.broker != nil && b.broker.IsConnected() {
		payload, err := json.Marshal(readingPayload{
			SensorID:   r.SensorID,
			SensorName: r.SensorName,
			Value:      r.Value,
			Timestamp:  r.Timestamp,
		})
		if err != nil {
			b.log.Error("marshal reading failed", "sensor_id", r.SensorID, "error", err)
		} else if err := b.broker.Publish(b.topics.SensorReading(role), payload, b.qos, false); err != nil {
			b.log.Warn("reading publish failed", "sensor_id", r.SensorID, "error", err)
		}
	}

	if b.series != nil {
		if v, ok := numericValue(r.Value); ok {
			if err := b.series.WriteReading(role, r.SensorID, v, r.Timestamp); err != nil {
				b.log.Debug("time series write skipped", "sensor_id", r.SensorID, "reason", err.Error())
			}
		}
	}
}

// RecordEvent implements hub.EventSink.
//
// Every event publishes to {base}/event/{kind}. Actuator transitions also
// publish a retained state message and write to the hearth_actuator
// measurement so late subscribers and dashboards see current state.
func (b *Bridge) RecordEvent(e hub.Event) {
	if b.broker != nil && b.broker.IsConnected() {
		payload, err := json.Marshal(e)
		if err != nil {
			b.log.Error("marshal event failed", "kind", e.Kind, "error", err)
		} else if err := b.broker.Publish(b.topics.Event(string(e.Kind)), payload, b.qos, false); err != nil {
			b.log.Error("event publish failed", "kind", e.Kind, "error", err)
		}
	}

	if e.Kind == hub.EventActuatorState {
		b.recordTransition(e)
	}
}

// recordTransition handles the extra legs for actuator state changes.
func (b *Bridge) recordTransition(e hub.Event) {
	deviceID, _ := e.Detail["device_id"].(string)
	state := e.Detail["to"]

	if b.broker != nil && b.broker.IsConnected() {
		payload, err := json.Marshal(actuatorStatePayload{
			DeviceID: deviceID,
			Role:     e.Subject,
			State:    state,
			At:       e.At,
		})
		if err != nil {
			b.log.Error("marshal actuator state failed", "role", e.Subject, "error", err)
		} else if err := b.broker.Publish(b.topics.ActuatorState(e.Subject), payload, b.qos, true); err != nil {
			b.log.Error("actuator state publish failed", "role", e.Subject, "error", err)
		}
	}

	if b.series != nil {
		if on, ok := state.(bool); ok {
			if err := b.series.WriteActuatorState(e.Subject, deviceID, on, e.At); err != nil {
				b.log.Debug("time series write skipped", "role", e.Subject, "reason", err.Error())
			}
		}
	}
}

// handleSet parses an actuator set message and forwards it to the hub.
//
// Topic: {base}/actuator/{role}/set
// Payload (all fields optional): {"action": "turn_on", "params": {...}}
//
// An empty payload or empty action defaults to toggle. Commands the hub
// rejects (unknown actuator, full queue) are logged, not retried.
func (b *Bridge) handleSet(topic string, payload []byte) error {
	role, ok := b.topics.ActuatorSetRole(topic)
	if !ok {
		b.log.Warn("ignoring set message on unexpected topic", "topic", topic)
		return nil
	}

	var p setPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("parse set payload for %s: %w", role, err)
		}
	}

	action := device.Action(p.Action)
	if p.Action == "" {
		action = device.ActionToggle
	}

	id, err := b.hub.SendCommand(role, action, p.Params, commandSource)
	if err != nil {
		b.log.Warn("mqtt command rejected",
			"role", role,
			"action", string(action),
			"error", err)
		return nil
	}

	b.log.Debug("mqtt command accepted",
		"command_id", id,
		"role", role,
		"action", string(action))

	return nil
}

// numericValue converts a reading value to float64 for time-series storage.
// Booleans and other non-numeric values report false.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
