package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfigFile writes a temporary YAML config file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, "portal:\n  simulated: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Portal.VendorID != 0x0e6f {
		t.Errorf("default vendor_id = %#x, want 0x0e6f", cfg.Portal.VendorID)
	}
	if cfg.Portal.ProductID != 0x0241 {
		t.Errorf("default product_id = %#x, want 0x0241", cfg.Portal.ProductID)
	}
	if cfg.Portal.FaultThreshold != 5 {
		t.Errorf("default fault_threshold = %d, want 5", cfg.Portal.FaultThreshold)
	}
	if cfg.Colors.Idle != (ColorConfig{R: 20, G: 20, B: 20}) {
		t.Errorf("default idle color = %+v, want dim grey", cfg.Colors.Idle)
	}
	if cfg.Colors.Error != (ColorConfig{R: 100}) {
		t.Errorf("default error color = %+v, want red", cfg.Colors.Error)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default logging level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
portal:
  simulated: true
  poll_timeout_ms: 250
  fault_threshold: 3
colors:
  idle:
    r: 10
    g: 10
    b: 10
database:
  path: /tmp/test-portal.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !cfg.Portal.Simulated {
		t.Error("portal.simulated = false, want true")
	}
	if got := cfg.PollTimeout(); got != 250*time.Millisecond {
		t.Errorf("PollTimeout() = %v, want 250ms", got)
	}
	if cfg.Portal.FaultThreshold != 3 {
		t.Errorf("fault_threshold = %d, want 3", cfg.Portal.FaultThreshold)
	}
	if cfg.Colors.Idle != (ColorConfig{R: 10, G: 10, B: 10}) {
		t.Errorf("idle color = %+v, want 10/10/10", cfg.Colors.Idle)
	}
	if cfg.Database.Path != "/tmp/test-portal.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "portal:\n  simulated: false\n")

	t.Setenv("PORTAL_SIMULATED", "true")
	t.Setenv("PORTAL_DATABASE_PATH", "/tmp/env-portal.db")
	t.Setenv("PORTAL_MQTT_HOST", "broker.internal")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !cfg.Portal.Simulated {
		t.Error("PORTAL_SIMULATED override not applied")
	}
	if cfg.Database.Path != "/tmp/env-portal.db" {
		t.Errorf("database.path = %q, want env override", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Host != "broker.internal" {
		t.Errorf("mqtt host = %q, want env override", cfg.MQTT.Broker.Host)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) { c.Portal.Simulated = true },
		},
		{
			name: "missing vendor id on real hardware",
			mutate: func(c *Config) {
				c.Portal.Simulated = false
				c.Portal.VendorID = 0
			},
			wantErr: "portal.vendor_id",
		},
		{
			name:    "zero fault threshold",
			mutate:  func(c *Config) { c.Portal.FaultThreshold = 0 },
			wantErr: "portal.fault_threshold",
		},
		{
			name:    "color channel out of range",
			mutate:  func(c *Config) { c.Colors.Error = ColorConfig{R: 255} },
			wantErr: "colors.error",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "invalid api port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
