// Package api provides the HTTP REST API and WebSocket server for the hub.
//
// It exposes hub status, the live world snapshot, actuator commands, away
// mode, rule metadata, the event history, and a sanitized view of the
// runtime configuration:
//
//	GET  /api/v1/health                     liveness probe
//	GET  /api/v1/status                     hub and device status
//	GET  /api/v1/state                      current world snapshot
//	POST /api/v1/actuators/{name}/command   enqueue an actuator command
//	PUT  /api/v1/away-mode                  arm or stand down away mode
//	GET  /api/v1/rules                      automation rule metadata
//	GET  /api/v1/events?limit=N             recent hub events (needs history)
//	GET  /api/v1/config                     sanitized runtime configuration
//	GET  /ws                                WebSocket (channels: state, events)
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// The WebSocket hub doubles as the hub's broadcaster: wire it with
// Hub.SetBroadcaster(server.Broadcaster()) before starting the hub so
// each controller cycle reaches subscribed clients on the "state" channel
// and hub events reach the "events" channel.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
