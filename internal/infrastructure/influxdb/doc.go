// Package influxdb provides time-series storage for sensor readings and
// actuator state transitions.
//
// The hub writes two measurements:
//
//	hearth_reading   numeric sensor samples, tagged role + sensor_id
//	hearth_actuator  on/off transitions as 1/0, tagged role + device_id
//
// Writes are non-blocking and batched by the underlying client. Async
// write failures are delivered via SetOnError rather than on the write
// call itself.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without time series
//	}
//	defer client.Close()
//
//	client.WriteReading("temperature", "temp_01", 20.4, time.Now())
//
// InfluxDB is optional infrastructure. When disabled or unreachable the
// hub runs normally and only loses historical charting.
package influxdb
