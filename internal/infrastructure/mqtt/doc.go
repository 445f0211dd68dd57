// Package mqtt wraps paho.mqtt.golang for the hub's telemetry traffic.
//
// The telemetry bridge publishes sensor readings, actuator state and hub
// events through this client, and subscribes to inbound actuator
// commands:
//
//	outbound                        inbound
//	─────────────────────────       ───────────────────────
//	{base}/sensor/{role}/reading    {base}/actuator/{role}/set
//	{base}/actuator/{role}/state
//	{base}/event/{kind}
//	{base}/hub/status (retained)
//
// Connection handling:
//   - Auto-reconnect with exponential backoff
//   - Subscriptions restored automatically after reconnect
//   - Last Will and Testament marks the hub offline if it crashes
//   - Graceful Close publishes a distinct offline status first
//
// All public methods are safe for concurrent use. Message handlers run
// on paho goroutines and are wrapped with panic recovery so a broken
// handler cannot take down the process.
package mqtt
