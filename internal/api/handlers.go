package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hearth-home/hearth-core/internal/device"
	"github.com/hearth-home/hearth-core/internal/hub"
	"github.com/hearth-home/hearth-core/internal/infrastructure/config"
)

// commandSource tags commands that arrived over HTTP.
const commandSource = "api"

// commandRequest is the body for POST /actuators/{name}/command.
// Both fields are optional; an empty action means toggle.
type commandRequest struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// awayModeRequest is the body for PUT /away-mode. Enabled is a pointer so
// a missing field can be told apart from an explicit false.
type awayModeRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleStatus returns the hub's full status report.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Status())
}

// handleState returns the current world snapshot.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.State())
}

// handleActuatorCommand enqueues a command for the named actuator.
//
// The command is accepted, not executed: the actuator applies it on its
// own goroutine, so the response is 202 with the command ID rather than
// the resulting state.
func (s *Server) handleActuatorCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	action := device.Action(req.Action)
	if req.Action == "" {
		action = device.ActionToggle
	}

	id, err := s.hub.SendCommand(name, action, req.Params, commandSource)
	switch {
	case errors.Is(err, hub.ErrActuatorNotFound):
		writeNotFound(w, fmt.Sprintf("unknown actuator: %s", name))
		return
	case errors.Is(err, device.ErrQueueFull):
		writeUnavailable(w, fmt.Sprintf("command queue full for %s", name))
		return
	case err != nil:
		s.logger.Error("command dispatch failed", "actuator", name, "error", err)
		writeInternalError(w, "dispatching command")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"command_id": id,
		"actuator":   name,
		"action":     string(action),
	})
}

// handleAwayMode arms or stands down away mode.
func (s *Server) handleAwayMode(w http.ResponseWriter, r *http.Request) {
	var req awayModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Enabled == nil {
		writeBadRequest(w, "enabled field is required")
		return
	}

	s.hub.SetAwayMode(*req.Enabled)

	writeJSON(w, http.StatusOK, map[string]any{
		"away_mode": *req.Enabled,
	})
}

// handleRules returns metadata for the registered automation rules.
func (s *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.hub.Rules()
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// handleEvents returns recent hub events from the history log, newest first.
// Requires the history store; returns 503 when it is disabled.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "event history is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("event history query failed", "error", err)
		writeInternalError(w, "querying event history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": entries,
		"count":  len(entries),
	})
}

// handleConfig returns a sanitized view of the runtime configuration.
// Broker and InfluxDB credentials are redacted, never echoed.
func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.cfg

	writeJSON(w, http.StatusOK, map[string]any{
		"hub": map[string]any{
			"cycle_interval":  cfg.Hub.CycleInterval.String(),
			"error_backoff":   cfg.Hub.ErrorBackoff.String(),
			"stop_timeout":    cfg.Hub.StopTimeout.String(),
			"readings_buffer": cfg.Hub.ReadingsBuffer,
			"command_buffer":  cfg.Hub.CommandBuffer,
		},
		"sensors": map[string]any{
			"temperature": rangeSensorView(cfg.Sensors.Temperature),
			"light":       rangeSensorView(cfg.Sensors.Light),
			"motion": map[string]any{
				"enabled":            cfg.Sensors.Motion.Enabled,
				"update_interval":    cfg.Sensors.Motion.UpdateInterval.String(),
				"motion_probability": cfg.Sensors.Motion.MotionProbability,
			},
		},
		"actuators": map[string]any{
			"light": map[string]any{
				"enabled":       cfg.Actuators.Light.Enabled,
				"initial_state": cfg.Actuators.Light.InitialState,
				"brightness":    cfg.Actuators.Light.Brightness,
			},
			"heater": map[string]any{
				"enabled":            cfg.Actuators.Heater.Enabled,
				"initial_state":      cfg.Actuators.Heater.InitialState,
				"target_temperature": cfg.Actuators.Heater.TargetTemperature,
			},
			"alarm": map[string]any{
				"enabled":       cfg.Actuators.Alarm.Enabled,
				"initial_state": cfg.Actuators.Alarm.InitialState,
			},
		},
		"rules": map[string]any{
			"temperature_low":  cfg.Rules.TemperatureLow,
			"temperature_high": cfg.Rules.TemperatureHigh,
			"light_threshold":  cfg.Rules.LightThreshold,
		},
		"api": map[string]any{
			"host": cfg.API.Host,
			"port": cfg.API.Port,
		},
		"websocket": map[string]any{
			"path": cfg.WebSocket.Path,
		},
		"mqtt": map[string]any{
			"enabled":    cfg.MQTT.Enabled,
			"base_topic": cfg.MQTT.BaseTopic,
			"broker":     fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id":  cfg.MQTT.Broker.ClientID,
			"tls":        cfg.MQTT.Broker.TLS,
			"username":   cfg.MQTT.Auth.Username,
			"password":   redactSecret(cfg.MQTT.Auth.Password),
			"qos":        cfg.MQTT.QoS,
		},
		"influxdb": map[string]any{
			"enabled": cfg.InfluxDB.Enabled,
			"url":     cfg.InfluxDB.URL,
			"org":     cfg.InfluxDB.Org,
			"bucket":  cfg.InfluxDB.Bucket,
			"token":   redactSecret(cfg.InfluxDB.Token),
		},
		"history": map[string]any{
			"enabled":   cfg.History.Enabled,
			"path":      cfg.History.Path,
			"retention": cfg.History.Retention.String(),
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
	})
}

// rangeSensorView renders a random-walk sensor config section.
func rangeSensorView(c config.RangeSensorConfig) map[string]any {
	return map[string]any{
		"enabled":         c.Enabled,
		"update_interval": c.UpdateInterval.String(),
		"initial_value":   c.InitialValue,
		"min_value":       c.MinValue,
		"max_value":       c.MaxValue,
		"variation_range": c.VariationRange,
	}
}

// redactSecret replaces a non-empty secret with a placeholder.
func redactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "[redacted]"
}
