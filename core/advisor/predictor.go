package advisor

import (
	"errors"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// ErrUnavailable is returned by a predictor that cannot produce an opinion
// for the current sample (missing channels, cold model, out-of-range
// input). The scheduler treats it as a silent omission, not a failure.
var ErrUnavailable = errors.New("advisor: predictor unavailable")

// Predictor is one of the advisory opinion sources. Predict returns the
// variant-specific result struct for the predictor's ID, or ErrUnavailable
// when no opinion can be formed. Implementations must not panic past this
// boundary; any other error is counted as a predictor failure.
type Predictor interface {
	ID() model.PredictorID
	Predict(sample model.TelemetrySample) (any, error)
}

// ContextTracker supplies the read-only race context snapshot consumed by
// each cycle. The authoritative context is owned elsewhere; the engine
// never writes through this interface.
type ContextTracker interface {
	Snapshot() model.RaceContext
}

// DecisionStore retains fused decisions for later inspection.
type DecisionStore interface {
	Add(model.Decision)
}
