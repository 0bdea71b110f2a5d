package main

import (
	"math"
	"math/rand"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// Car evolves the state of one race vehicle. Channels follow simple
// first-order dynamics so the generated feed looks like a real stint:
// the throttle breathes along the lap, the motor heats under load and
// the charge drains toward the finish.
type Car struct {
	ID          string
	TotalLaps   int
	LapSeconds  float64
	Scenario    string
	ScenarioLap int

	rng *rand.Rand

	progress  float64 // laps completed, fractional
	elapsed   float64 // seconds since the start
	soc       float64
	socPerLap float64
	motorTemp float64
	throttle  float64
	spo2      float64
	heartRate float64
	h2Bar     float64
	fcTemp    float64
	lastPurge float64
}

// drainFactor scales the per-lap discharge with the battery profile:
// an endurance pack sips, a sprint pack burns hot.
func drainFactor(profile string) float64 {
	switch profile {
	case "endurance":
		return 0.7
	case "sprint":
		return 1.3
	default:
		return 1
	}
}

// NewCar creates a car at the start line.
func NewCar(cfg Config, rng *rand.Rand) *Car {
	return &Car{
		ID:          cfg.CarID,
		TotalLaps:   cfg.TotalLaps,
		LapSeconds:  cfg.LapSeconds,
		Scenario:    cfg.Scenario,
		ScenarioLap: cfg.ScenarioLap,
		rng:         rng,
		soc:         cfg.StartSoC,
		socPerLap:   cfg.StartSoC * 0.9 / float64(cfg.TotalLaps) * drainFactor(cfg.BatteryProfile),
		motorTemp:   48,
		throttle:    37,
		spo2:        98,
		heartRate:   92,
		h2Bar:       350,
		fcTemp:      62,
	}
}

// Lap returns the current lap number, starting at one.
func (c *Car) Lap() int {
	lap := 1 + int(c.progress)
	if lap > c.TotalLaps {
		lap = c.TotalLaps
	}
	return lap
}

// Finished reports whether the car has crossed the final lap.
func (c *Car) Finished() bool { return c.progress >= float64(c.TotalLaps) }

func (c *Car) scenarioActive() bool {
	return c.Scenario != "" && c.Scenario != "none" && c.Lap() >= c.ScenarioLap
}

// Advance moves the car state forward by dt seconds.
func (c *Car) Advance(dt float64) {
	c.elapsed += dt
	c.progress += dt / c.LapSeconds

	phase := 2 * math.Pi * math.Mod(c.progress, 1)
	c.throttle = 37 + 8*math.Sin(phase) + c.rng.Float64()*2

	drain := c.socPerLap * dt / c.LapSeconds
	if c.scenarioActive() && c.Scenario == "low-soc" {
		drain *= 4
	}
	c.soc = math.Max(c.soc-drain, 0)

	tempTarget := 50 + c.throttle*0.3
	if c.scenarioActive() && c.Scenario == "overheat" {
		tempTarget = 118
	}
	c.motorTemp += (tempTarget - c.motorTemp) * dt / 45

	c.heartRate = 92 + c.elapsed/60*0.4 + c.rng.Float64()*4
	if c.scenarioActive() && c.Scenario == "hypoxia" {
		c.spo2 = math.Max(c.spo2-dt*0.2, 84)
	} else {
		c.spo2 = 97 + c.rng.Float64()
	}

	c.h2Bar = math.Max(c.h2Bar-dt*0.05, 0)
	c.fcTemp += (64 - c.fcTemp) * dt / 90
	c.lastPurge += dt
	if c.lastPurge > 120 && !(c.scenarioActive() && c.Scenario == "purge") {
		c.lastPurge = 0
	}
}

// Sample emits the current state as one flat telemetry snapshot.
func (c *Car) Sample() model.TelemetrySample {
	speed := 22 + c.throttle*0.25 + c.rng.Float64()
	wheel := speed * (1 + c.rng.Float64()*0.02)
	if c.scenarioActive() && c.Scenario == "slip" {
		wheel = speed * 1.35
	}

	sample := model.TelemetrySample{
		model.KeySocCurrent:     round2(c.soc),
		model.KeySpeedAvg:       round2(speed),
		model.KeyMotorTemp:      round2(c.motorTemp),
		model.KeyLapCurrent:     float64(c.Lap()),
		model.KeyTotalLaps:      float64(c.TotalLaps),
		model.KeyThrottlePct:    round2(c.throttle),
		model.KeyGPSSpeed:       round2(speed),
		model.KeyWheelFront:     round2(wheel),
		model.KeyHeartRate:      round2(c.heartRate),
		model.KeySpO2:           round2(c.spo2),
		model.KeyStintMinutes:   round2(c.elapsed / 60),
		model.KeyH2TankPressure: round2(c.h2Bar),
		model.KeyFuelCellTemp:   round2(c.fcTemp),
		model.KeyTimeSincePurge: round2(c.lastPurge),
		model.KeyCabinTemp:      round2(24 + c.motorTemp*0.05),
	}
	return sample
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
