package predict

import (
	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// Vital-sign limits that raise an immediate medical alert regardless of
// the fatigue score.
const (
	spo2CriticalPct = 90.0
	heartRateLimit  = 180.0
)

// FatiguePredictor grades driver fatigue 0-3 from vitals, control inputs
// and stint length. Stateless; every call scores the sample on its own.
type FatiguePredictor struct{}

func NewFatiguePredictor() *FatiguePredictor { return &FatiguePredictor{} }

func (p *FatiguePredictor) ID() model.PredictorID { return model.PredictorFatigue }

// Predict needs at least one vital channel to produce an opinion.
func (p *FatiguePredictor) Predict(sample model.TelemetrySample) (any, error) {
	if !sample.Has(model.KeyHeartRate) && !sample.Has(model.KeySpO2) {
		return nil, errUnavailable()
	}

	hr := sample.ValueOr(model.KeyHeartRate, 80)
	spo2 := sample.ValueOr(model.KeySpO2, 98)

	var alerts []model.MedicalAlert
	if spo2 < spo2CriticalPct {
		alerts = append(alerts, model.MedicalAlert{
			Severity: model.SeverityCritical,
			Alert:    "HYPOXIA_RISK",
			Value:    spo2,
			Action:   "PIT IMMEDIATELY - Driver oxygen saturation critical",
		})
	}
	if hr > heartRateLimit {
		alerts = append(alerts, model.MedicalAlert{
			Severity: model.SeverityHigh,
			Alert:    "HIGH_HR",
			Value:    hr,
			Action:   "Monitor driver closely - heart rate elevated",
		})
	}

	// Hypoxia pins the score: no weighted sum argues with low SpO2.
	if spo2 < spo2CriticalPct {
		return model.FatigueResult{
			Level:         3,
			Pct:           100,
			Action:        "MANDATORY pit stop - medical check required",
			Confidence:    0.95,
			MedicalAlerts: alerts,
		}, nil
	}

	contrib := map[string]float64{
		"heart_rate":  clamp(hr/150, 0, 2) * 25,
		"spo2":        clamp((100-spo2)*2, 0, 20),
		"control":     clamp((sample.Value(model.KeyThrottleVar)+sample.Value(model.KeySteeringOsc))*2, 0, 25),
		"stint":       clamp(sample.Value(model.KeyStintMinutes)/120*15, 0, 15),
		"consistency": clamp(sample.Value(model.KeyLapTimeVar)/2, 0, 15),
		"cabin_heat":  max(0, (sample.ValueOr(model.KeyCabinTemp, 25)-25)*0.5),
	}

	pct := 0.0
	for _, c := range contrib {
		pct += c
	}
	pct = clamp(pct, 0, 100)

	level, action := fatigueGrade(pct)
	return model.FatigueResult{
		Level:         level,
		Pct:           pct,
		Action:        action,
		Confidence:    0.8,
		MedicalAlerts: alerts,
		Contributions: contrib,
	}, nil
}

func fatigueGrade(pct float64) (int, string) {
	switch {
	case pct < 25:
		return 0, "Driver fresh - no action needed"
	case pct < 50:
		return 1, "Monitor driver - slight fatigue signs"
	case pct < 75:
		return 2, "Plan driver swap within 3 laps"
	default:
		return 3, "MANDATORY pit stop - driver swap required"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
