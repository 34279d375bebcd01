package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "boiler:\n  host: 10.0.0.5\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Boiler.Host != "10.0.0.5" {
		t.Errorf("host = %q, want 10.0.0.5", cfg.Boiler.Host)
	}
	if cfg.Boiler.Port != 502 {
		t.Errorf("port = %d, want 502", cfg.Boiler.Port)
	}
	if cfg.Boiler.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %v, want 30s", cfg.Boiler.PollInterval)
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("http port = %d, want 8080", cfg.Server.HTTPPort)
	}
	if cfg.MQTT.Enabled {
		t.Error("mqtt must default to disabled")
	}
}

func TestLoadRequiresBoilerHost(t *testing.T) {
	path := writeConfig(t, "server:\n  http_port: 9090\n")

	if _, err := Load(path); err == nil {
		t.Fatal("config without boiler.host must fail")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
boiler:
  host: boiler.local
  poll_interval: 10s
mqtt:
  enabled: true
  broker: tcp://broker:1883
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Boiler.PollInterval != 10*time.Second {
		t.Errorf("poll interval = %v, want 10s", cfg.Boiler.PollInterval)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("mqtt = %+v, want enabled with broker", cfg.MQTT)
	}
}
