package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Portal Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Portal   PortalConfig   `yaml:"portal"`
	Colors   ColorsConfig   `yaml:"colors"`
	Tags     TagsConfig     `yaml:"tags"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PortalConfig contains settings for the USB portal device.
type PortalConfig struct {
	// Simulated selects the synthetic driver instead of real hardware.
	// Useful for development machines without a portal attached.
	Simulated bool `yaml:"simulated"`

	// VendorID and ProductID identify the USB device to open.
	// Defaults match the LEGO Dimensions portal (0x0e6f / 0x0241).
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`

	// PollTimeoutMs is the read timeout for a single event poll (milliseconds).
	// A poll that elapses with no data is not an error.
	PollTimeoutMs int `yaml:"poll_timeout_ms"`

	// FaultThreshold is the number of consecutive hard I/O faults tolerated
	// before the polling loop gives up and stops.
	FaultThreshold int `yaml:"fault_threshold"`

	// RetryDelayMs is how long to wait after a hard fault before retrying
	// (milliseconds).
	RetryDelayMs int `yaml:"retry_delay_ms"`
}

// ColorConfig is a single pad color. Channels use the device's 0-100 scale,
// not the usual 0-255.
type ColorConfig struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// ColorsConfig contains the pad feedback palette. Each entry is overridable;
// defaults match the stock palette.
type ColorsConfig struct {
	Idle     ColorConfig `yaml:"idle"`
	Error    ColorConfig `yaml:"error"`
	Active   ColorConfig `yaml:"active"`
	Thinking ColorConfig `yaml:"thinking"`
}

// TagsConfig contains settings for the tag registry.
type TagsConfig struct {
	// DefinitionFile is an optional declarative YAML file of tag definitions.
	// When its modification time is newer than the most recent persisted tag,
	// the store is destructively repopulated from it at startup.
	DefinitionFile string `yaml:"definition_file"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains settings for the optional MQTT event mirror.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains settings for the optional poll-loop metrics writer.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
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
// Environment variables follow the pattern: PORTAL_SECTION_KEY
// For example: PORTAL_DATABASE_PATH, PORTAL_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			VendorID:       0x0e6f,
			ProductID:      0x0241,
			PollTimeoutMs:  100,
			FaultThreshold: 5,
			RetryDelayMs:   500,
		},
		Colors: ColorsConfig{
			Idle:     ColorConfig{R: 20, G: 20, B: 20},
			Error:    ColorConfig{R: 100},
			Active:   ColorConfig{B: 100},
			Thinking: ColorConfig{R: 100, B: 100},
		},
		Tags: TagsConfig{
			DefinitionFile: "./configs/tags.yaml",
		},
		Database: DatabaseConfig{
			Path:        "./data/portal.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "portal-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
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
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PORTAL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Portal device
	if v := os.Getenv("PORTAL_SIMULATED"); v != "" {
		cfg.Portal.Simulated = v == "1" || strings.EqualFold(v, "true")
	}

	// Tags
	if v := os.Getenv("PORTAL_TAGS_FILE"); v != "" {
		cfg.Tags.DefinitionFile = v
	}

	// Database
	if v := os.Getenv("PORTAL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("PORTAL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PORTAL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PORTAL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("PORTAL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("PORTAL_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Portal validation. Vendor/product IDs are only needed for real hardware.
	if !c.Portal.Simulated {
		if c.Portal.VendorID == 0 {
			errs = append(errs, "portal.vendor_id is required when not simulated")
		}
		if c.Portal.ProductID == 0 {
			errs = append(errs, "portal.product_id is required when not simulated")
		}
	}
	if c.Portal.PollTimeoutMs < 1 {
		errs = append(errs, "portal.poll_timeout_ms must be at least 1")
	}
	if c.Portal.FaultThreshold < 1 {
		errs = append(errs, "portal.fault_threshold must be at least 1")
	}
	if c.Portal.RetryDelayMs < 0 {
		errs = append(errs, "portal.retry_delay_ms must not be negative")
	}

	// Pad colors use the device's 0-100 channel scale.
	for name, col := range map[string]ColorConfig{
		"idle":     c.Colors.Idle,
		"error":    c.Colors.Error,
		"active":   c.Colors.Active,
		"thinking": c.Colors.Thinking,
	} {
		if col.R > 100 || col.G > 100 || col.B > 100 {
			errs = append(errs, fmt.Sprintf("colors.%s channels must be in range 0-100", name))
		}
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// PollTimeout returns the device poll timeout as a Duration.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Portal.PollTimeoutMs) * time.Millisecond
}

// RetryDelay returns the post-fault retry delay as a Duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Portal.RetryDelayMs) * time.Millisecond
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
