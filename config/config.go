package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aryanzkys/apatte-pitbox/core/advisor"
	"github.com/aryanzkys/apatte-pitbox/core/factory"
	"github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/racectx"
	"github.com/aryanzkys/apatte-pitbox/infra/mqtt"
)

// Config is the full advisory service configuration.
type Config struct {
	MQTT       mqtt.Config            `json:"mqtt"`
	Engine     advisor.Config         `json:"engine"`
	Predictors []factory.ModuleConfig `json:"predictors"`
	Race       racectx.Config         `json:"race"`
	Metrics    metrics.Config         `json:"metrics"`
	Prom       PromConfig             `json:"prometheus"`
	API        APIConfig              `json:"api"`
	Logging    LoggingConfig          `json:"logging"`
	Sentry     SentryConfig           `json:"sentry"`
	Telemetry  TelemetryConfig        `json:"telemetry"`
	Timing     TimingConfig           `json:"timing"`
	Trigger    TriggerConfig          `json:"trigger"`
}

// APIConfig configures the pit-crew HTTP surface.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	Token   string `json:"token"`
}

// SetDefaults applies the default listen address.
func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

// PromConfig configures the Prometheus exposition endpoint.
type PromConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
}

// SetDefaults applies the default exposition address.
func (c *PromConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":9100"
	}
}

// TriggerConfig configures the periodic advisory cycle trigger.
type TriggerConfig struct {
	Enabled         bool `json:"enabled"`
	IntervalSeconds int  `json:"interval_seconds"`
}

// SetDefaults applies the default cycle interval.
func (c *TriggerConfig) SetDefaults() {
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 5
	}
}

// Validate rejects intervals the trigger cannot run with.
func (c TriggerConfig) Validate() error {
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("trigger: interval_seconds must be positive, got %d", c.IntervalSeconds)
	}
	return nil
}

// Load reads the configuration file, applies PITBOX_ environment
// overrides, then fills defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("PITBOX_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "pitbox_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.MQTT.SetDefaults()
	cfg.Engine.SetDefaults()
	cfg.Race.SetDefaults()
	cfg.Prom.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Telemetry.SetDefaults()
	cfg.Trigger.SetDefaults()
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Race.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Trigger.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
