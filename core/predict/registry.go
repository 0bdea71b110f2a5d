package predict

import (
	"fmt"

	"github.com/aryanzkys/apatte-pitbox/core/advisor"
	"github.com/aryanzkys/apatte-pitbox/core/factory"
	"github.com/aryanzkys/apatte-pitbox/core/model"
)

func errUnavailable() error { return advisor.ErrUnavailable }

var registry = factory.NewRegistry[advisor.Predictor]()

// RegisterPredictor adds a predictor factory under the given type name.
func RegisterPredictor(name string, f factory.Factory[advisor.Predictor]) error {
	return registry.Register(name, f)
}

// NewPredictor instantiates a single predictor from its module config.
func NewPredictor(cfg factory.ModuleConfig) (advisor.Predictor, error) {
	return registry.Create(cfg)
}

// BuildChain instantiates the configured predictors in the order given.
// An empty configuration yields the full default chain.
func BuildChain(cfgs []factory.ModuleConfig) ([]advisor.Predictor, error) {
	if len(cfgs) == 0 {
		return DefaultChain(), nil
	}
	out := make([]advisor.Predictor, 0, len(cfgs))
	for _, cfg := range cfgs {
		p, err := registry.Create(cfg)
		if err != nil {
			return nil, fmt.Errorf("predict: building %q: %w", cfg.Type, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// DefaultChain returns all predictors with stock settings, in the fixed
// priority order.
func DefaultChain() []advisor.Predictor {
	return []advisor.Predictor{
		NewAnomalyPredictor(),
		NewFatiguePredictor(),
		NewEnergyPredictor(EnergyConfig{}),
		NewH2PurgePredictor(),
		NewRacingLinePredictor(nil),
		NewSlipCoastPredictor(),
		NewEfficiencyPredictor(),
		NewRankPredictor(),
	}
}

type racingLineConfig struct {
	Waypoints []Waypoint `json:"waypoints"`
}

func init() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(registry.Register(string(model.PredictorAnomaly), func(map[string]any) (advisor.Predictor, error) {
		return NewAnomalyPredictor(), nil
	}))
	must(registry.Register(string(model.PredictorFatigue), func(map[string]any) (advisor.Predictor, error) {
		return NewFatiguePredictor(), nil
	}))
	must(registry.Register(string(model.PredictorEnergy), func(conf map[string]any) (advisor.Predictor, error) {
		var cfg EnergyConfig
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return NewEnergyPredictor(cfg), nil
	}))
	must(registry.Register(string(model.PredictorH2Purge), func(map[string]any) (advisor.Predictor, error) {
		return NewH2PurgePredictor(), nil
	}))
	must(registry.Register(string(model.PredictorRacingLine), func(conf map[string]any) (advisor.Predictor, error) {
		var cfg racingLineConfig
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return NewRacingLinePredictor(cfg.Waypoints), nil
	}))
	must(registry.Register(string(model.PredictorSlipCoast), func(map[string]any) (advisor.Predictor, error) {
		return NewSlipCoastPredictor(), nil
	}))
	must(registry.Register(string(model.PredictorEfficiency), func(map[string]any) (advisor.Predictor, error) {
		return NewEfficiencyPredictor(), nil
	}))
	must(registry.Register(string(model.PredictorRank), func(map[string]any) (advisor.Predictor, error) {
		return NewRankPredictor(), nil
	}))
}
