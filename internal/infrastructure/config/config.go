package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Hearth Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hub       HubConfig       `yaml:"hub"`
	Sensors   SensorsConfig   `yaml:"sensors"`
	Actuators ActuatorsConfig `yaml:"actuators"`
	Rules     RulesConfig     `yaml:"rules"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	History   HistoryConfig   `yaml:"history"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HubConfig contains controller loop settings.
type HubConfig struct {
	// CycleInterval is how often the controller drains readings and
	// evaluates rules.
	CycleInterval time.Duration `yaml:"cycle_interval"`

	// ErrorBackoff is the pause after a failed controller cycle.
	ErrorBackoff time.Duration `yaml:"error_backoff"`

	// StopTimeout bounds how long Stop waits for a device or controller
	// goroutine to exit.
	StopTimeout time.Duration `yaml:"stop_timeout"`

	// ReadingsBuffer is the capacity of the shared sensor reading channel.
	ReadingsBuffer int `yaml:"readings_buffer"`

	// CommandBuffer is the capacity of each actuator's command queue.
	CommandBuffer int `yaml:"command_buffer"`
}

// SensorsConfig contains per-sensor simulation settings.
type SensorsConfig struct {
	Temperature RangeSensorConfig  `yaml:"temperature"`
	Light       RangeSensorConfig  `yaml:"light"`
	Motion      MotionSensorConfig `yaml:"motion"`
}

// RangeSensorConfig configures a sensor that random-walks a numeric value
// inside [MinValue, MaxValue].
type RangeSensorConfig struct {
	Enabled        bool          `yaml:"enabled"`
	UpdateInterval time.Duration `yaml:"update_interval"`
	InitialValue   float64       `yaml:"initial_value"`
	MinValue       float64       `yaml:"min_value"`
	MaxValue       float64       `yaml:"max_value"`
	VariationRange float64       `yaml:"variation_range"`
}

// MotionSensorConfig configures the simulated motion sensor.
type MotionSensorConfig struct {
	Enabled        bool          `yaml:"enabled"`
	UpdateInterval time.Duration `yaml:"update_interval"`

	// MotionProbability is the chance (0.0-1.0) that any given sample
	// reports motion.
	MotionProbability float64 `yaml:"motion_probability"`
}

// ActuatorsConfig contains per-actuator settings.
type ActuatorsConfig struct {
	Light  LightActuatorConfig  `yaml:"light"`
	Heater HeaterActuatorConfig `yaml:"heater"`
	Alarm  AlarmActuatorConfig  `yaml:"alarm"`
}

// LightActuatorConfig configures the simulated light actuator.
type LightActuatorConfig struct {
	Enabled      bool `yaml:"enabled"`
	InitialState bool `yaml:"initial_state"`

	// Brightness is the initial brightness percentage (0-100).
	Brightness int `yaml:"brightness"`
}

// HeaterActuatorConfig configures the simulated heater actuator.
type HeaterActuatorConfig struct {
	Enabled           bool    `yaml:"enabled"`
	InitialState      bool    `yaml:"initial_state"`
	TargetTemperature float64 `yaml:"target_temperature"`
}

// AlarmActuatorConfig configures the simulated alarm actuator.
type AlarmActuatorConfig struct {
	Enabled      bool `yaml:"enabled"`
	InitialState bool `yaml:"initial_state"`
}

// RulesConfig contains the thresholds used by the standard rule set.
type RulesConfig struct {
	// TemperatureLow turns the heater on when the temperature drops below it.
	TemperatureLow float64 `yaml:"temperature_low"`

	// TemperatureHigh turns the heater off when the temperature rises above it.
	TemperatureHigh float64 `yaml:"temperature_high"`

	// LightThreshold is the light level below which a room counts as dark.
	LightThreshold float64 `yaml:"light_threshold"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains MQTT telemetry settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	BaseTopic string              `yaml:"base_topic"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// HistoryConfig contains the SQLite event history settings.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`

	// BusyTimeout is the SQLite busy timeout in seconds.
	BusyTimeout int `yaml:"busy_timeout"`

	// Retention is how long events are kept before pruning. Zero
	// disables pruning.
	Retention time.Duration `yaml:"retention"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HEARTH_SECTION_KEY
// For example: HEARTH_HISTORY_PATH, HEARTH_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the full simulated inventory enabled and
// every tunable at its stock value. The hub is runnable on defaults alone.
func Default() *Config {
	return &Config{
		Hub: HubConfig{
			CycleInterval:  500 * time.Millisecond,
			ErrorBackoff:   time.Second,
			StopTimeout:    5 * time.Second,
			ReadingsBuffer: 256,
			CommandBuffer:  16,
		},
		Sensors: SensorsConfig{
			Temperature: RangeSensorConfig{
				Enabled:        true,
				UpdateInterval: 2 * time.Second,
				InitialValue:   20.0,
				MinValue:       15.0,
				MaxValue:       25.0,
				VariationRange: 2.0,
			},
			Light: RangeSensorConfig{
				Enabled:        true,
				UpdateInterval: 1500 * time.Millisecond,
				InitialValue:   50.0,
				MinValue:       0.0,
				MaxValue:       100.0,
				VariationRange: 10.0,
			},
			Motion: MotionSensorConfig{
				Enabled:           true,
				UpdateInterval:    3 * time.Second,
				MotionProbability: 0.3,
			},
		},
		Actuators: ActuatorsConfig{
			Light: LightActuatorConfig{
				Enabled:    true,
				Brightness: 80,
			},
			Heater: HeaterActuatorConfig{
				Enabled:           true,
				TargetTemperature: 20.0,
			},
			Alarm: AlarmActuatorConfig{
				Enabled: true,
			},
		},
		Rules: RulesConfig{
			TemperatureLow:  18.0,
			TemperatureHigh: 22.0,
			LightThreshold:  30.0,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTTConfig{
			BaseTopic: "hearth",
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "hearth-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		History: HistoryConfig{
			Path:        "./data/hearth.db",
			BusyTimeout: 5,
			Retention:   7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HEARTH_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("HEARTH_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("HEARTH_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("HEARTH_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HEARTH_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HEARTH_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("HEARTH_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// History
	if v := os.Getenv("HEARTH_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	// Logging
	if v := os.Getenv("HEARTH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure found, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Hub validation
	if c.Hub.CycleInterval <= 0 {
		errs = append(errs, "hub.cycle_interval must be positive")
	}
	if c.Hub.ErrorBackoff <= 0 {
		errs = append(errs, "hub.error_backoff must be positive")
	}
	if c.Hub.StopTimeout <= 0 {
		errs = append(errs, "hub.stop_timeout must be positive")
	}
	if c.Hub.ReadingsBuffer < 1 {
		errs = append(errs, "hub.readings_buffer must be at least 1")
	}
	if c.Hub.CommandBuffer < 1 {
		errs = append(errs, "hub.command_buffer must be at least 1")
	}

	// Sensor validation
	errs = append(errs, validateRangeSensor("sensors.temperature", c.Sensors.Temperature)...)
	errs = append(errs, validateRangeSensor("sensors.light", c.Sensors.Light)...)
	if c.Sensors.Motion.Enabled {
		if c.Sensors.Motion.UpdateInterval <= 0 {
			errs = append(errs, "sensors.motion.update_interval must be positive")
		}
		if c.Sensors.Motion.MotionProbability < 0 || c.Sensors.Motion.MotionProbability > 1 {
			errs = append(errs, "sensors.motion.motion_probability must be between 0.0 and 1.0")
		}
	}

	// Actuator validation
	if c.Actuators.Light.Enabled {
		if c.Actuators.Light.Brightness < 0 || c.Actuators.Light.Brightness > 100 {
			errs = append(errs, "actuators.light.brightness must be between 0 and 100")
		}
	}

	// Rule thresholds
	if c.Rules.TemperatureLow >= c.Rules.TemperatureHigh {
		errs = append(errs, "rules.temperature_low must be below rules.temperature_high")
	}
	if c.Rules.LightThreshold < 0 || c.Rules.LightThreshold > 100 {
		errs = append(errs, "rules.light_threshold must be between 0 and 100")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Broker.ClientID == "" {
			errs = append(errs, "mqtt.broker.client_id is required when mqtt is enabled")
		}
		if c.MQTT.BaseTopic == "" {
			errs = append(errs, "mqtt.base_topic is required when mqtt is enabled")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set HEARTH_INFLUXDB_TOKEN)")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	// History validation
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}
	if c.History.Retention < 0 {
		errs = append(errs, "history.retention must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateRangeSensor checks a range sensor section, returning one message
// per problem found. Disabled sensors are not validated.
func validateRangeSensor(section string, cfg RangeSensorConfig) []string {
	if !cfg.Enabled {
		return nil
	}

	var errs []string
	if cfg.UpdateInterval <= 0 {
		errs = append(errs, section+".update_interval must be positive")
	}
	if cfg.MinValue >= cfg.MaxValue {
		errs = append(errs, section+".min_value must be below "+section+".max_value")
	}
	if cfg.InitialValue < cfg.MinValue || cfg.InitialValue > cfg.MaxValue {
		errs = append(errs, section+".initial_value must be within [min_value, max_value]")
	}
	if cfg.VariationRange <= 0 {
		errs = append(errs, section+".variation_range must be positive")
	}
	return errs
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
