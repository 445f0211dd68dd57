// Hearth Core - Home Automation Hub Simulator
//
// This is the main entry point for the Hearth hub. Hearth runs a fully
// simulated household on one box:
//   - Sensors (temperature, light, motion) that generate readings
//   - Actuators (light, heater, alarm) driven by a command queue
//   - A rule engine reacting to the aggregate state every cycle
//   - HTTP/WebSocket, MQTT, InfluxDB and SQLite facades around it
//
// Everything external is optional: with no config file, no broker and no
// databases, the hub still runs on built-in defaults.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hearth-home/hearth-core/internal/api"
	"github.com/hearth-home/hearth-core/internal/history"
	"github.com/hearth-home/hearth-core/internal/hub"
	"github.com/hearth-home/hearth-core/internal/infrastructure/config"
	"github.com/hearth-home/hearth-core/internal/infrastructure/database"
	"github.com/hearth-home/hearth-core/internal/infrastructure/influxdb"
	"github.com/hearth-home/hearth-core/internal/infrastructure/logging"
	"github.com/hearth-home/hearth-core/internal/infrastructure/mqtt"
	"github.com/hearth-home/hearth-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// pruneInterval is how often old history rows are swept.
const pruneInterval = time.Hour

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Hearth Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration. A missing file is not fatal: the simulator is
	// fully runnable on defaults.
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	switch {
	case err == nil:
		log.Info("configuration loaded", "path", configPath)
	case errors.Is(err, os.ErrNotExist):
		log.Warn("config file not found, using defaults", "path", configPath)
		cfg = config.Default()
	default:
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Build the hub: devices, rules, state store
	h, err := hub.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building hub: %w", err)
	}

	// Open event history (optional)
	var db *database.DB
	var eventLog *history.Log
	if cfg.History.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.History.Path,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer func() {
			log.Info("closing history database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		}()
		log.Info("history database connected", "path", db.Path())

		eventLog, err = history.New(db.DB, log)
		if err != nil {
			return fmt.Errorf("initialising event log: %w", err)
		}
		h.AddEventSink(eventLog)

		if cfg.History.Retention > 0 {
			startPruner(ctx, eventLog, cfg.History.Retention, log)
		}
	} else {
		log.Info("event history disabled")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Wire the telemetry bridge when at least one sink exists
	if mqttClient != nil || influxClient != nil {
		opts := telemetry.Options{
			Hub:    h,
			Topics: mqtt.Topics{Base: cfg.MQTT.BaseTopic},
			QoS:    byte(cfg.MQTT.QoS),
			Logger: log,
		}
		// Assign only when non-nil so the interfaces stay nil otherwise
		if mqttClient != nil {
			opts.Broker = mqttClient
		}
		if influxClient != nil {
			opts.Series = influxClient
		}

		bridge, bridgeErr := telemetry.New(opts)
		if bridgeErr != nil {
			return fmt.Errorf("building telemetry bridge: %w", bridgeErr)
		}
		if startErr := bridge.Start(); startErr != nil {
			return fmt.Errorf("starting telemetry bridge: %w", startErr)
		}
		h.AddReadingSink(bridge)
		h.AddEventSink(bridge)
		log.Info("telemetry bridge started",
			"mqtt", mqttClient != nil,
			"influxdb", influxClient != nil,
		)
	}

	// Build the API server and attach its WebSocket hub as the broadcaster
	// before anything starts producing snapshots.
	srv, err := api.New(api.Deps{
		Config:  cfg,
		Hub:     h,
		History: eventLog,
		Logger:  log,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("building API server: %w", err)
	}
	h.SetBroadcaster(srv.Broadcaster())

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	// Start the hub last so every sink is attached before the first cycle
	h.Start()

	// Verify optional infrastructure is healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Stop producing before the deferred Close() calls tear down the
	// sinks in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. History database (if enabled)
	h.Stop()

	log.Info("Hearth Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HEARTH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEARTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the optional infrastructure connections are healthy.
// Every argument may be nil when the matching feature is disabled.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: History database to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// startPruner sweeps history rows older than the retention window on a
// fixed interval, until the context is cancelled.
func startPruner(ctx context.Context, eventLog *history.Log, retention time.Duration, log *logging.Logger) {
	go func() {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := eventLog.Prune(ctx, retention)
				if err != nil {
					log.Warn("history prune failed", "error", err)
					continue
				}
				if removed > 0 {
					log.Info("history pruned", "removed", removed, "retention", retention)
				}
			}
		}
	}()
}
