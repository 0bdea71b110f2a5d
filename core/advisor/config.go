package advisor

import (
	"fmt"
	"time"
)

// DefaultBudget is the cooperative wall-clock budget for one predictor
// chain pass.
const DefaultBudget = 100 * time.Millisecond

// Config carries the engine settings loaded from the configuration file.
type Config struct {
	VehicleID    string        `koanf:"vehicle_id" json:"vehicle_id"`
	BudgetMillis int           `koanf:"budget_ms" json:"budget_ms"`
	HistorySize  int           `koanf:"history_size" json:"history_size"`
	Disabled     []string      `koanf:"disabled_models" json:"disabled_models"`
	AckTimeout   time.Duration `koanf:"ack_timeout" json:"ack_timeout"`
}

// SetDefaults fills the zero-valued fields with working defaults.
func (c *Config) SetDefaults() {
	if c.VehicleID == "" {
		c.VehicleID = "apatte-01"
	}
	if c.BudgetMillis == 0 {
		c.BudgetMillis = int(DefaultBudget / time.Millisecond)
	}
	if c.HistorySize == 0 {
		c.HistorySize = 100
	}
	if c.AckTimeout == 0 {
		c.AckTimeout = 10 * time.Second
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.BudgetMillis < 0 {
		return fmt.Errorf("advisor: budget_ms must be positive, got %d", c.BudgetMillis)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("advisor: history_size must be positive, got %d", c.HistorySize)
	}
	return nil
}

// Budget returns the configured budget as a duration.
func (c Config) Budget() time.Duration {
	return time.Duration(c.BudgetMillis) * time.Millisecond
}
