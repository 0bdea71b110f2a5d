package predict

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// podiumPositions is how many finishing positions count as a podium.
const podiumPositions = 3

// RankPredictor estimates finishing position against the fleet from the
// efficiency distribution of the competitors: a normal model gives the
// probability of beating an average competitor, a binomial over the field
// turns it into a podium probability.
type RankPredictor struct{}

func NewRankPredictor() *RankPredictor { return &RankPredictor{} }

func (p *RankPredictor) ID() model.PredictorID { return model.PredictorRank }

// Predict requires fleet statistics and our own efficiency figure.
func (p *RankPredictor) Predict(sample model.TelemetrySample) (any, error) {
	if !sample.Has(model.KeyFleetEffMean, model.KeyFleetEffStd, model.KeyFleetSize, model.KeyOurEff) {
		return nil, errUnavailable()
	}
	fleetMean := sample.Value(model.KeyFleetEffMean)
	fleetStd := sample.Value(model.KeyFleetEffStd)
	fleetSize := int(sample.Value(model.KeyFleetSize))
	ourEff := sample.Value(model.KeyOurEff)

	if fleetStd <= 0 || fleetSize < 2 {
		return nil, errUnavailable()
	}

	// Higher efficiency beats the average competitor when the fleet mean
	// falls below our own distribution.
	dist := distuv.Normal{Mu: ourEff, Sigma: fleetStd}
	pBeat := 1 - dist.CDF(fleetMean)

	competitors := fleetSize - 1
	needed := fleetSize - podiumPositions
	podium := 1.0
	if needed > 0 {
		bin := distuv.Binomial{N: float64(competitors), P: pBeat}
		podium = 1 - bin.CDF(float64(needed-1))
	}

	expected := 1 + (1-pBeat)*float64(competitors)
	ci := 1.96 * math.Sqrt(expected*(1-pBeat))

	res := model.RankResult{
		PodiumProbability: podium,
		ExpectedRank:      expected,
		RankCILower:       math.Max(1, expected-ci),
		RankCIUpper:       math.Min(float64(fleetSize), expected+ci),
		ProbBeatAverage:   pBeat,
		Confidence:        math.Min(pBeat, 1-pBeat) * 2,
	}
	res.StrategyType, res.Recommendation, res.Actions = rankStrategy(podium)
	return res, nil
}

func rankStrategy(podium float64) (string, string, []string) {
	switch {
	case podium > 0.6:
		return "AGGRESSIVE",
			"Podium within reach - push pace where energy allows",
			[]string{"Raise target lap speed", "Use remaining energy margin", "Defend track position"}
	case podium > 0.3:
		return "BALANCED",
			"Podium contested - hold pace and wait for mistakes ahead",
			[]string{"Hold current pace", "Protect energy margin", "Watch gap to P3"}
	case podium > 0.1:
		return "CONSERVATIVE",
			"Podium unlikely - bank a clean finish",
			[]string{"Prioritize finishing", "Avoid risky overtakes"}
	default:
		return "SURVIVAL",
			"Focus on finishing - position is out of reach",
			[]string{"Minimum-risk driving", "Preserve the vehicle"}
	}
}
