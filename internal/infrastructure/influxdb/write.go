package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names for hub time-series data.
const (
	// MeasurementReading holds numeric sensor readings.
	MeasurementReading = "hearth_reading"

	// MeasurementActuator holds actuator on/off transitions as 1/0.
	MeasurementActuator = "hearth_actuator"
)

// WriteReading writes a numeric sensor reading to InfluxDB.
//
// Points are batched and written asynchronously. Write failures
// are delivered via the SetOnError callback.
//
// Parameters:
//   - role: Sensor role (e.g. "temperature", "light")
//   - sensorID: Stable sensor identifier (e.g. "temp_01")
//   - value: The sampled value
//   - ts: Sample timestamp
//
// Returns:
//   - error: ErrNotConnected if client is not connected
func (c *Client) WriteReading(role, sensorID string, value float64, ts time.Time) error {
	tags := map[string]string{
		"role":      role,
		"sensor_id": sensorID,
	}
	fields := map[string]interface{}{
		"value": value,
	}

	return c.WritePointWithTime(MeasurementReading, tags, fields, ts)
}

// WriteActuatorState writes an actuator state transition to InfluxDB.
//
// Boolean state is stored as an integer field (1 for on, 0 for off)
// so dashboards can graph duty cycles directly.
//
// Parameters:
//   - role: Actuator role (e.g. "heater", "alarm")
//   - deviceID: Stable actuator identifier (e.g. "heater_01")
//   - on: New state after the transition
//   - ts: Transition timestamp
//
// Returns:
//   - error: ErrNotConnected if client is not connected
func (c *Client) WriteActuatorState(role, deviceID string, on bool, ts time.Time) error {
	state := 0
	if on {
		state = 1
	}

	tags := map[string]string{
		"role":      role,
		"device_id": deviceID,
	}
	fields := map[string]interface{}{
		"state": state,
	}

	return c.WritePointWithTime(MeasurementActuator, tags, fields, ts)
}

// WritePoint writes a custom point with arbitrary tags and fields.
//
// The point is timestamped with the current time.
//
// Parameters:
//   - measurement: Measurement name
//   - tags: Tag key-value pairs (indexed)
//   - fields: Field key-value pairs (data)
//
// Returns:
//   - error: ErrNotConnected if client is not connected
func (c *Client) WritePoint(
	measurement string,
	tags map[string]string,
	fields map[string]interface{},
) error {
	return c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with an explicit timestamp.
//
// Parameters:
//   - measurement: Measurement name
//   - tags: Tag key-value pairs (indexed)
//   - fields: Field key-value pairs (data)
//   - ts: Point timestamp
//
// Returns:
//   - error: ErrNotConnected if client is not connected
func (c *Client) WritePointWithTime(
	measurement string,
	tags map[string]string,
	fields map[string]interface{},
	ts time.Time,
) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(measurement, tags, fields, ts)
	c.writeAPI.WritePoint(point)

	return nil
}
