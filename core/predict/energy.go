package predict

import (
	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// Battery sizing and finish-line reserve defaults.
const (
	DefaultBatteryCapacityKWh = 5.0
	DefaultEnergyPerLapKWh    = 0.35
	DefaultTotalLaps          = 10
	FinishReservePct          = 5.0
)

// EnergyConfig tunes the energy projection for a specific vehicle.
type EnergyConfig struct {
	BatteryCapacityKWh float64 `json:"battery_capacity_kwh"`
	EnergyPerLapKWh    float64 `json:"energy_per_lap_kwh"`
	TotalLaps          int     `json:"total_laps"`
}

// SetDefaults fills zero values with the stock vehicle profile.
func (c *EnergyConfig) SetDefaults() {
	if c.BatteryCapacityKWh <= 0 {
		c.BatteryCapacityKWh = DefaultBatteryCapacityKWh
	}
	if c.EnergyPerLapKWh <= 0 {
		c.EnergyPerLapKWh = DefaultEnergyPerLapKWh
	}
	if c.TotalLaps <= 0 {
		c.TotalLaps = DefaultTotalLaps
	}
}

// EnergyPredictor projects the state of charge at the finish line from a
// straight energy balance: remaining laps times per-lap consumption
// against what the pack still holds.
type EnergyPredictor struct {
	cfg EnergyConfig
}

func NewEnergyPredictor(cfg EnergyConfig) *EnergyPredictor {
	cfg.SetDefaults()
	return &EnergyPredictor{cfg: cfg}
}

func (p *EnergyPredictor) ID() model.PredictorID { return model.PredictorEnergy }

// Predict requires the state of charge; lap counters and per-lap
// consumption fall back to the configured vehicle profile when telemetry
// does not carry them, at reduced confidence.
func (p *EnergyPredictor) Predict(sample model.TelemetrySample) (any, error) {
	soc, ok := sample.Get(model.KeySocCurrent)
	if !ok {
		return nil, errUnavailable()
	}

	totalLaps := int(sample.ValueOr(model.KeyTotalLaps, float64(p.cfg.TotalLaps)))
	currentLap := int(sample.Value(model.KeyLapCurrent))
	lapsRemaining := totalLaps - currentLap
	if lapsRemaining < 0 {
		lapsRemaining = 0
	}

	perLap, measured := sample.Get(model.KeyEnergyPerLap)
	method := "measured_per_lap"
	confidence := 0.9
	if !measured || perLap <= 0 {
		perLap = p.cfg.EnergyPerLapKWh
		method = "profile_estimate"
		confidence = 0.7
	}

	availableKWh := soc / 100 * p.cfg.BatteryCapacityKWh
	neededKWh := float64(lapsRemaining) * perLap
	finalSoC := (availableKWh - neededKWh) / p.cfg.BatteryCapacityKWh * 100

	return model.EnergyResult{
		PredictedFinalSoC: finalSoC,
		WillFinish:        finalSoC > FinishReservePct,
		Margin:            finalSoC - FinishReservePct,
		EnergyPerLapKWh:   perLap,
		Confidence:        confidence,
		Method:            method,
	}, nil
}
