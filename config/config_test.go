package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "pitbox"
  username: "user"
  password: "pass"
  use_tls: false
engine:
  vehicle_id: "apatte-01"
  budget_ms: 80
  history_size: 50
  disabled_models: ["rank"]
race:
  total_laps: 12
predictors:
  - type: "energy"
    conf:
      battery_capacity_kwh: 3.2
metrics:
  sinks:
    - type: "nop"
api:
  enabled: true
  token: "secret"
timing:
  mode: "mock"
  mock:
    address: ":9090"
  client:
    poll_interval_seconds: 60
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "pitbox"},
		{"advice_topic_default", cfg.MQTT.AdviceTopic, "pitbox/advice"},
		{"vehicle_id", cfg.Engine.VehicleID, "apatte-01"},
		{"budget_ms", cfg.Engine.BudgetMillis, 80},
		{"history_size", cfg.Engine.HistorySize, 50},
		{"disabled", len(cfg.Engine.Disabled) == 1 && cfg.Engine.Disabled[0] == "rank", true},
		{"total_laps", cfg.Race.TotalLaps, 12},
		{"predictor_type", len(cfg.Predictors) == 1 && cfg.Predictors[0].Type == "energy", true},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"api_token", cfg.API.Token, "secret"},
		{"api_addr_default", cfg.API.Address, ":8080"},
		{"timing.mode", cfg.Timing.Mode, "mock"},
		{"timing.mock.address", cfg.Timing.Mock.Address, ":9090"},
		{"timing.client.poll_interval_seconds", cfg.Timing.Client.PollIntervalSeconds, 60},
		{"trigger_default", cfg.Trigger.IntervalSeconds, 5},
		{"log_level_default", cfg.Logging.Level, "info"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("engine:\n  vehicle_id: \"apatte-01\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PITBOX_ENGINE__VEHICLE_ID", "apatte-02")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Engine.VehicleID != "apatte-02" {
		t.Fatalf("environment override ignored: %s", cfg.Engine.VehicleID)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("unsupported format must be rejected")
	}
}

func TestLoadRejectsBadLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: \"shouty\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("unknown log level must be rejected")
	}
}
