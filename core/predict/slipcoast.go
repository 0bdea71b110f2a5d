package predict

import (
	"math"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// Slip detection bands over the wheel-vs-ground speed deviation.
const (
	slipThreshold   = 0.15
	slipMediumBound = 0.25
	slipHighBound   = 0.40
	regenWattsPerMs = 500.0 // recoverable power per m/s² of deceleration
)

// SlipCoastPredictor detects wheel slip by comparing wheel speeds against
// GPS ground speed and advises on coasting and tire pressure.
type SlipCoastPredictor struct{}

func NewSlipCoastPredictor() *SlipCoastPredictor { return &SlipCoastPredictor{} }

func (p *SlipCoastPredictor) ID() model.PredictorID { return model.PredictorSlipCoast }

// Predict requires ground speed and at least one wheel speed channel.
func (p *SlipCoastPredictor) Predict(sample model.TelemetrySample) (any, error) {
	gps, ok := sample.Get(model.KeyGPSSpeed)
	if !ok || gps <= 0 {
		return nil, errUnavailable()
	}
	front, hasFront := sample.Get(model.KeyWheelFront)
	rear, hasRear := sample.Get(model.KeyWheelRear)
	if !hasFront && !hasRear {
		return nil, errUnavailable()
	}

	wheel := front
	switch {
	case hasFront && hasRear:
		wheel = (front + rear) / 2
	case hasRear:
		wheel = rear
	}
	deviation := math.Abs(wheel-gps) / gps

	res := model.SlipCoastResult{
		SlipDetected: deviation > slipThreshold,
		SlipSeverity: "NONE",
	}

	pressure := sample.ValueOr(model.KeyTirePressure, 4.0)
	delta := 0.0
	if res.SlipDetected {
		switch {
		case deviation < slipMediumBound:
			res.SlipSeverity = "LOW"
			delta = 0.1
		case deviation < slipHighBound:
			res.SlipSeverity = "MEDIUM"
			delta = 0.2
		default:
			res.SlipSeverity = "HIGH"
			delta = 0.3
		}
		res.Recommendation = "Reduce throttle aggression - wheel slip detected (" + res.SlipSeverity + ")"
		res.Confidence = 0.7
	} else {
		res.Confidence = 0.9
	}
	res.TirePressure = model.TirePressureAdvice{
		CurrentBar:     pressure,
		RecommendedBar: pressure - delta,
		Delta:          -delta,
		Reason:         pressureReason(res.SlipSeverity),
	}

	// Off-throttle share is the coast ratio; more coasting means more of
	// the lap rolls for free.
	res.OptimalCoastRatio = clamp(100-sample.ValueOr(model.KeyThrottlePct, 50), 0, 100)
	res.RegenPotentialW = math.Max(0, sample.Value(model.KeyDecelRate)) * regenWattsPerMs

	if !res.SlipDetected {
		switch {
		case res.OptimalCoastRatio > 60:
			res.Recommendation = "Increase coasting - lift earlier into corners"
		case res.OptimalCoastRatio > 40:
			res.Recommendation = "Coasting balance acceptable - hold current technique"
		default:
			res.Recommendation = "Throttle-heavy stint - add coast phases on straights"
		}
	}
	return res, nil
}

func pressureReason(severity string) string {
	if severity == "NONE" {
		return "Grip nominal - no pressure change"
	}
	return "Drop pressure to enlarge contact patch (" + severity + " slip)"
}
