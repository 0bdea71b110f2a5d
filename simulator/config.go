package main

import (
	"fmt"
	"time"
)

// Config holds parameters for the telemetry simulator.
type Config struct {
	Broker         string
	CarID          string
	TelemetryTopic string
	RequestTopic   string
	ResponsePrefix string
	AdviceTopic    string
	AckPrefix      string

	TotalLaps      int
	LapSeconds     float64
	StartSoC       float64
	BatteryProfile string
	Interval       time.Duration

	Scenario    string
	ScenarioLap int

	AckLatency time.Duration
	DropRate   float64

	Verbose bool
	Seed    int64

	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

// Validate checks the simulator parameters.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.TotalLaps <= 0 {
		return fmt.Errorf("total laps must be positive")
	}
	if c.LapSeconds <= 0 {
		return fmt.Errorf("lap duration must be positive")
	}
	if c.StartSoC <= 0 || c.StartSoC > 100 {
		return fmt.Errorf("start soc must be in (0,100]")
	}
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("drop rate must be in [0,1]")
	}
	switch c.Scenario {
	case "", "none", "overheat", "hypoxia", "low-soc", "slip", "purge":
	default:
		return fmt.Errorf("unknown scenario %q", c.Scenario)
	}
	switch c.BatteryProfile {
	case "", "standard", "endurance", "sprint":
	default:
		return fmt.Errorf("unknown battery profile %q", c.BatteryProfile)
	}
	if c.ScenarioLap < 0 {
		return fmt.Errorf("scenario lap must not be negative")
	}
	return nil
}
