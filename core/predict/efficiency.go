package predict

import (
	"math"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// Throttle-map efficiency bands over the distance to the optimal setting.
const (
	zoneGreenBound   = 2.0
	zoneYellowBound  = 5.0
	gainPerThrottle  = 0.8 // efficiency percent recovered per throttle point
	minOptimThrottle = 20.0
	maxOptimThrottle = 65.0
)

// EfficiencyPredictor compares the current throttle position against the
// speed-dependent sweet spot of the motor map.
type EfficiencyPredictor struct{}

func NewEfficiencyPredictor() *EfficiencyPredictor { return &EfficiencyPredictor{} }

func (p *EfficiencyPredictor) ID() model.PredictorID { return model.PredictorEfficiency }

// Predict requires the throttle position; the optimal setting is derived
// from average speed.
func (p *EfficiencyPredictor) Predict(sample model.TelemetrySample) (any, error) {
	throttle, ok := sample.Get(model.KeyThrottlePct)
	if !ok {
		return nil, errUnavailable()
	}
	speed := sample.ValueOr(model.KeySpeedAvg, 30)

	optimal := clamp(25+speed*0.4, minOptimThrottle, maxOptimThrottle)
	diff := throttle - optimal
	absDiff := math.Abs(diff)

	res := model.EfficiencyResult{
		OptimalThrottlePct: optimal,
		CurrentThrottlePct: throttle,
		EfficiencyGain:     diff * gainPerThrottle,
		Confidence:         0.8,
	}

	switch {
	case absDiff < zoneGreenBound:
		res.Zone = "GREEN"
	case absDiff < zoneYellowBound:
		res.Zone = "YELLOW"
	default:
		res.Zone = "RED"
	}

	switch {
	case absDiff < 3:
		res.Recommendation = "Throttle in the efficient band - maintain"
	case diff > 5:
		res.Recommendation = "Reduce throttle toward the efficient band"
	default:
		res.Recommendation = "Adjust throttle toward the efficient band"
	}
	return res, nil
}
