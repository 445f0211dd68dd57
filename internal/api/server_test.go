package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearth-home/hearth-core/internal/history"
	"github.com/hearth-home/hearth-core/internal/hub"
	"github.com/hearth-home/hearth-core/internal/infrastructure/config"
	"github.com/hearth-home/hearth-core/internal/infrastructure/database"
	"github.com/hearth-home/hearth-core/internal/infrastructure/logging"
)

// testServer creates a Server backed by a real, unstarted hub. The hub's
// devices exist and accept commands, but no goroutines run, so tests stay
// deterministic.
func testServer(t *testing.T) (*Server, *hub.Hub) {
	t.Helper()

	cfg := config.Default()
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = 0

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	h, err := hub.New(cfg, log)
	if err != nil {
		t.Fatalf("hub.New() error: %v", err)
	}

	srv, err := New(Deps{
		Config:  cfg,
		Hub:     h,
		Logger:  log,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv, h
}

// testHistory opens a throwaway event log in a temp directory.
func testHistory(t *testing.T) *history.Log {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "events.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log, err := history.New(db.DB, nil)
	if err != nil {
		t.Fatalf("history.New() error: %v", err)
	}
	return log
}

// ─── Constructor Tests ─────────────────────────────────────────────

func TestNew_RequiresDependencies(t *testing.T) {
	cfg := config.Default()
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	h, err := hub.New(cfg, log)
	if err != nil {
		t.Fatalf("hub.New() error: %v", err)
	}

	if _, err := New(Deps{Hub: h, Logger: log}); err == nil {
		t.Error("expected error for missing config")
	}
	if _, err := New(Deps{Config: cfg, Logger: log}); err == nil {
		t.Error("expected error for missing hub")
	}
	if _, err := New(Deps{Config: cfg, Hub: h}); err == nil {
		t.Error("expected error for missing logger")
	}
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestHealth_ContentType(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	ct := w.Header().Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Status and State Tests ────────────────────────────────────────

func TestStatus(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp hub.Status
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Running {
		t.Error("hub should not be running in tests")
	}
	if len(resp.Sensors) != 3 {
		t.Errorf("sensors = %d, want 3", len(resp.Sensors))
	}
	if len(resp.Actuators) != 3 {
		t.Errorf("actuators = %d, want 3", len(resp.Actuators))
	}
	if resp.AwayMode {
		t.Error("away_mode should default to false")
	}
}

func TestState(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["away_mode"] != false {
		t.Errorf("away_mode = %v, want false", resp["away_mode"])
	}
	if _, ok := resp["taken_at"]; !ok {
		t.Error("expected taken_at field in snapshot")
	}
}

// ─── Actuator Command Tests ────────────────────────────────────────

func TestActuatorCommand(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"action": "turn_on"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/actuators/heater/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["command_id"] == "" || resp["command_id"] == nil {
		t.Error("expected command_id to be set")
	}
	if resp["actuator"] != "heater" {
		t.Errorf("actuator = %v, want heater", resp["actuator"])
	}
	if resp["action"] != "turn_on" {
		t.Errorf("action = %v, want turn_on", resp["action"])
	}
}

func TestActuatorCommand_EmptyBodyTogglesDevice(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actuators/light_actuator/command", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["action"] != "toggle" {
		t.Errorf("action = %v, want toggle", resp["action"])
	}
}

func TestActuatorCommand_UnknownActuator(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"action": "turn_on"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/actuators/dishwasher/command", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestActuatorCommand_InvalidJSON(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actuators/heater/command", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestActuatorCommand_QueueFull(t *testing.T) {
	srv, h := testServer(t)
	router := srv.buildRouter()

	// Fill the alarm's command queue. The hub is not running, so nothing
	// drains it.
	queueSize := config.Default().Hub.CommandBuffer
	for i := 0; i < queueSize; i++ {
		if _, err := h.SendCommand("alarm", "activate", nil, "test"); err != nil {
			t.Fatalf("SendCommand(%d) error: %v", i, err)
		}
	}

	body := `{"action": "activate"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/actuators/alarm/command", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusServiceUnavailable, w.Body.String())
	}
}

// ─── Away Mode Tests ───────────────────────────────────────────────

func TestAwayMode_Enable(t *testing.T) {
	srv, h := testServer(t)
	router := srv.buildRouter()

	body := `{"enabled": true}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/away-mode", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["away_mode"] != true {
		t.Errorf("away_mode = %v, want true", resp["away_mode"])
	}
	if !h.AwayMode() {
		t.Error("hub away mode not set")
	}
}

func TestAwayMode_MissingField(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/away-mode", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAwayMode_InvalidJSON(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/away-mode", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Rules Tests ───────────────────────────────────────────────────

func TestRules(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Rules []map[string]any `json:"rules"`
		Count int              `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Count != 5 {
		t.Errorf("count = %d, want 5", resp.Count)
	}

	// security_alarm evaluates first
	if len(resp.Rules) == 0 {
		t.Fatal("no rules returned")
	}
	if resp.Rules[0]["id"] != "security_alarm" {
		t.Errorf("first rule = %v, want security_alarm", resp.Rules[0]["id"])
	}
}

// ─── Events Tests ──────────────────────────────────────────────────

func TestEvents_DisabledWithoutHistory(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestEvents(t *testing.T) {
	srv, _ := testServer(t)
	srv.history = testHistory(t)
	router := srv.buildRouter()

	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		e := hub.Event{
			ID:      fmt.Sprintf("evt-%d", i),
			Kind:    hub.EventActuatorState,
			Subject: "heater",
			Detail:  map[string]any{"from": false, "to": true},
			At:      base.Add(time.Duration(i) * time.Second),
		}
		if err := srv.history.Record(ctx, e); err != nil {
			t.Fatalf("Record(%d) error: %v", i, err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Events []map[string]any `json:"events"`
		Count  int              `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 3 {
		t.Errorf("count = %d, want 3", resp.Count)
	}
}

func TestEvents_Limit(t *testing.T) {
	srv, _ := testServer(t)
	srv.history = testHistory(t)
	router := srv.buildRouter()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		e := hub.Event{
			ID:      fmt.Sprintf("evt-limit-%d", i),
			Kind:    hub.EventAwayMode,
			Subject: "hub",
			At:      time.Now().UTC(),
		}
		if err := srv.history.Record(ctx, e); err != nil {
			t.Fatalf("Record(%d) error: %v", i, err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestEvents_InvalidLimit(t *testing.T) {
	srv, _ := testServer(t)
	srv.history = testHistory(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Config Endpoint Tests ─────────────────────────────────────────

func TestConfig_RedactsSecrets(t *testing.T) {
	srv, _ := testServer(t)
	srv.cfg.MQTT.Auth.Password = "hunter2"
	srv.cfg.InfluxDB.Token = "super-secret-token"
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if strings.Contains(body, "hunter2") {
		t.Error("response leaked MQTT password")
	}
	if strings.Contains(body, "super-secret-token") {
		t.Error("response leaked InfluxDB token")
	}
	if !strings.Contains(body, "[redacted]") {
		t.Error("expected secrets to be marked [redacted]")
	}
}

func TestConfig_ReportsThresholds(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	rules, ok := resp["rules"].(map[string]any)
	if !ok {
		t.Fatalf("rules section missing: %v", resp)
	}
	if rules["temperature_low"] == nil {
		t.Error("expected temperature_low in rules section")
	}
}

// ─── WebSocket Hub Tests ───────────────────────────────────────────

func TestHub_BroadcastToSubscribed(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	wsHub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wsHub.Run(ctx)

	client := &WSClient{
		hub:           wsHub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: map[string]struct{}{hub.ChannelState: {}},
	}
	wsHub.Register(client)

	wsHub.Broadcast(hub.ChannelState, map[string]any{"away_mode": false})

	select {
	case msg := <-client.send:
		var wsMsg WSMessage
		if err := json.Unmarshal(msg, &wsMsg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if wsMsg.EventType != hub.ChannelState {
			t.Errorf("event_type = %q, want %q", wsMsg.EventType, hub.ChannelState)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for broadcast message")
	}
}

func TestHub_NoMessageForUnsubscribed(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	wsHub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wsHub.Run(ctx)

	// Client subscribed to events only
	client := &WSClient{
		hub:           wsHub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: map[string]struct{}{hub.ChannelEvents: {}},
	}
	wsHub.Register(client)

	wsHub.Broadcast(hub.ChannelState, map[string]any{"away_mode": false})

	select {
	case <-client.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(100 * time.Millisecond):
		// OK — no message received
	}
}

func TestHub_ClientCount(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	wsHub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wsHub.Run(ctx)

	if wsHub.ClientCount() != 0 {
		t.Errorf("initial client count = %d, want 0", wsHub.ClientCount())
	}

	client := &WSClient{
		hub:           wsHub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	wsHub.Register(client)

	if wsHub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", wsHub.ClientCount())
	}

	wsHub.Unregister(client)

	if wsHub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", wsHub.ClientCount())
	}
}

// ─── WebSocket Integration Tests ───────────────────────────────────

// testServerWithRealListener starts a server on a specific port so
// WebSocket clients can connect over TCP.
func testServerWithRealListener(t *testing.T, port int) (*Server, string) {
	t.Helper()

	cfg := config.Default()
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = port

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	h, err := hub.New(cfg, log)
	if err != nil {
		t.Fatalf("hub.New() error: %v", err)
	}

	srv, err := New(Deps{
		Config:  cfg,
		Hub:     h,
		Logger:  log,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	t.Cleanup(func() { srv.Close() })

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	// Wait for listener to be ready
	time.Sleep(100 * time.Millisecond)

	return srv, fmt.Sprintf("127.0.0.1:%d", port)
}

// connectWebSocket dials the server's WebSocket endpoint.
func connectWebSocket(t *testing.T, addr string) *websocket.Conn {
	t.Helper()

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return ws
}

func TestServer_StartAndClose(t *testing.T) {
	srv, addr := testServerWithRealListener(t, 19090)

	resp, err := http.Get("http://" + addr + "/api/v1/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health check status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	// Server should stop responding
	time.Sleep(100 * time.Millisecond)
	if _, err := http.Get("http://" + addr + "/api/v1/health"); err == nil {
		t.Error("server still responding after Close()")
	}
}

func TestWebSocket_SubscribeAndBroadcast(t *testing.T) {
	srv, addr := testServerWithRealListener(t, 19091)

	ws := connectWebSocket(t, addr)
	defer ws.Close()

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{hub.ChannelState}},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read subscribe response: %v", err)
	}

	if resp.Type != WSTypeResponse {
		t.Errorf("response type = %s, want %s", resp.Type, WSTypeResponse)
	}
	if resp.ID != "sub-1" {
		t.Errorf("response ID = %s, want sub-1", resp.ID)
	}
	if srv.ws.ClientCount() != 1 {
		t.Errorf("hub client count = %d, want 1", srv.ws.ClientCount())
	}

	// Broadcast a snapshot the way the controller would
	srv.Broadcaster().Broadcast(hub.ChannelState, map[string]any{"away_mode": true})

	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}

	if resp.Type != WSTypeEvent {
		t.Errorf("broadcast type = %s, want %s", resp.Type, WSTypeEvent)
	}
	if resp.EventType != hub.ChannelState {
		t.Errorf("broadcast event_type = %s, want %s", resp.EventType, hub.ChannelState)
	}
}

func TestWebSocket_Ping(t *testing.T) {
	_, addr := testServerWithRealListener(t, 19092)

	ws := connectWebSocket(t, addr)
	defer ws.Close()

	if err := ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "ping-1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read pong: %v", err)
	}

	if resp.Type != WSTypePong {
		t.Errorf("response type = %s, want pong", resp.Type)
	}
	if resp.ID != "ping-1" {
		t.Errorf("response ID = %s, want ping-1", resp.ID)
	}
}

func TestWebSocket_InvalidMessage(t *testing.T) {
	_, addr := testServerWithRealListener(t, 19093)

	ws := connectWebSocket(t, addr)
	defer ws.Close()

	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write invalid message: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read error response: %v", err)
	}

	if resp.Type != WSTypeError {
		t.Errorf("response type = %s, want error", resp.Type)
	}
}

func TestWebSocket_UnknownMessageType(t *testing.T) {
	_, addr := testServerWithRealListener(t, 19094)

	ws := connectWebSocket(t, addr)
	defer ws.Close()

	if err := ws.WriteJSON(WSMessage{Type: "unknown_type", ID: "test-1"}); err != nil {
		t.Fatalf("write unknown type: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read error response: %v", err)
	}

	if resp.Type != WSTypeError {
		t.Errorf("response type = %s, want error", resp.Type)
	}
}

func TestWebSocket_Unsubscribe(t *testing.T) {
	srv, addr := testServerWithRealListener(t, 19095)

	ws := connectWebSocket(t, addr)
	defer ws.Close()

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{hub.ChannelState, hub.ChannelEvents}},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read subscribe response: %v", err)
	}

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeUnsubscribe,
		ID:      "unsub-1",
		Payload: WSSubscribePayload{Channels: []string{hub.ChannelEvents}},
	}); err != nil {
		t.Fatalf("write unsubscribe: %v", err)
	}

	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read unsubscribe response: %v", err)
	}
	if resp.Type != WSTypeResponse {
		t.Errorf("unsubscribe response type = %s, want response", resp.Type)
	}

	// Events no longer delivered, state still is
	srv.Broadcaster().Broadcast(hub.ChannelEvents, map[string]any{"kind": "test"})
	srv.Broadcaster().Broadcast(hub.ChannelState, map[string]any{"away_mode": false})

	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if resp.EventType != hub.ChannelState {
		t.Errorf("received event_type = %s, want %s", resp.EventType, hub.ChannelState)
	}
}
