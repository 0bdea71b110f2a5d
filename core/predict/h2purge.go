package predict

import (
	"math"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// Hydrogen purge physics constants. The LEL sensor reads percent of the
// lower explosive limit; 25% is the hard ceiling the stack must never see.
const (
	h2TankVolumeM3     = 5.0
	h2PurgeEfficiency  = 0.85
	lelEmergencyPct    = 25.0
	lelPurgeNowPct     = 20.0
	lelConsiderPct     = 15.0
	purgeIntervalLimit = 600.0 // seconds since last purge before one is due
)

// Purge recommendation labels.
const (
	PurgeEmergency   = "EMERGENCY_PURGE"
	PurgeNow         = "PURGE_NOW"
	PurgeConsider    = "PURGE_CONSIDER"
	PurgeRecommended = "PURGE_RECOMMENDED"
	PurgeWait        = "WAIT"
)

// H2PurgePredictor schedules fuel-cell purges from the LEL sensor, tank
// pressure and stack temperature. The raw LEL reading is corrected for
// operating conditions before it is banded.
type H2PurgePredictor struct{}

func NewH2PurgePredictor() *H2PurgePredictor { return &H2PurgePredictor{} }

func (p *H2PurgePredictor) ID() model.PredictorID { return model.PredictorH2Purge }

// Predict is unavailable without an LEL reading; the remaining channels
// default to nominal operating conditions.
func (p *H2PurgePredictor) Predict(sample model.TelemetrySample) (any, error) {
	lel, ok := sample.Get(model.KeyLELPct)
	if !ok {
		return nil, errUnavailable()
	}

	fcTemp := sample.ValueOr(model.KeyFuelCellTemp, 25)
	pressure := sample.ValueOr(model.KeyH2TankPressure, 30)

	// Hot stacks and high tank pressure both accelerate crossover, so the
	// reading is scaled up before banding.
	tempFactor := 1 + (fcTemp-25)/100
	pressureFactor := pressure / 30
	adjusted := lel * tempFactor * pressureFactor

	res := model.PurgeResult{
		LELCurrent:  lel,
		AdjustedLEL: adjusted,
	}

	sincePurge := sample.Value(model.KeyTimeSincePurge)
	switch {
	case adjusted > lelEmergencyPct:
		res.Recommend = PurgeEmergency
		res.DurationSeconds = 45
		res.Severity = model.SeverityCritical
		res.Confidence = 1.0
		res.Reason = "LEL above emergency ceiling"
	case adjusted > lelPurgeNowPct:
		res.Recommend = PurgeNow
		res.DurationSeconds = 30
		res.Severity = model.SeverityHigh
		res.Confidence = 0.9
		res.Reason = "LEL approaching emergency ceiling"
	case adjusted > lelConsiderPct:
		res.Recommend = PurgeConsider
		res.DurationSeconds = 25
		res.Severity = model.SeverityWarning
		res.Confidence = 0.8
		res.Reason = "LEL elevated"
	case sincePurge > purgeIntervalLimit:
		res.Recommend = PurgeRecommended
		res.DurationSeconds = 20
		res.Severity = model.SeverityNormal
		res.Confidence = 0.75
		res.Reason = "Purge interval exceeded"
	default:
		res.Recommend = PurgeWait
		res.DurationSeconds = 0
		res.Severity = model.SeverityNormal
		res.Confidence = 0.85
		res.Reason = "Nitrogen accumulation nominal"
	}

	res.TimeToCritical = timeToCriticalMinutes(adjusted, sample.Value(model.KeyH2FlowRate))
	return res, nil
}

// maxHorizonMinutes caps the time-to-critical estimate so the value stays
// JSON-encodable when the accumulation rate is zero.
const maxHorizonMinutes = 999.0

// timeToCriticalMinutes estimates when the adjusted LEL crosses the
// emergency ceiling at the current accumulation rate.
func timeToCriticalMinutes(adjusted, flowRate float64) float64 {
	if adjusted >= lelEmergencyPct {
		return 0
	}
	rate := flowRate * (1 - h2PurgeEfficiency) / h2TankVolumeM3
	if rate <= 0 {
		return maxHorizonMinutes
	}
	return math.Min((lelEmergencyPct-adjusted)/rate, maxHorizonMinutes)
}
