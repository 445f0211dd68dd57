// Package telemetry bridges the hub to external infrastructure.
//
// The bridge fans hub output out to MQTT and InfluxDB and feeds external
// commands back in:
//
//	┌─────┐  readings   ┌────────┐  publish   ┌────────┐
//	│ Hub ├────────────►│ Bridge ├───────────►│ Broker │
//	│     │  events     │        │  write     ├────────┤
//	│     ├────────────►│        ├───────────►│ Influx │
//	│     │◄────────────┤        │◄───────────┤        │
//	└─────┘ SendCommand └────────┘ .../set    └────────┘
//
// Outbound:
//   - Sensor readings publish to {base}/sensor/{role}/reading and, when
//     numeric, write to the hearth_reading measurement.
//   - Hub events publish to {base}/event/{kind}. Actuator transitions
//     additionally publish a retained {base}/actuator/{role}/state message
//     and write to the hearth_actuator measurement.
//
// Inbound:
//   - {base}/actuator/{role}/set messages become hub commands with source
//     "mqtt". An empty payload or empty action means toggle.
//
// Both sinks are optional. A nil broker or series writer simply disables
// that leg; telemetry failures are logged and never disturb the hub loop.
package telemetry
