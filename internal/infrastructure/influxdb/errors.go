package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
//
// These errors can be checked with errors.Is() for specific handling:
//
//	client, err := influxdb.Connect(cfg)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // InfluxDB intentionally disabled, run without time series
//	}
var (
	// ErrNotConnected indicates an operation was attempted before Connect()
	// or after Close().
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection to InfluxDB failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates InfluxDB is disabled in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
