// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation. The predictor chain and the metrics sinks are both
// built through it.
//
// Example usage:
//
//	reg := factory.NewRegistry[model.Predictor]()
//	reg.Register("energy", func(conf map[string]any) (model.Predictor, error) {
//	    var c struct{ CapacityKWh float64 `json:"battery_capacity_kwh"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return predict.NewEnergyPredictor(c.CapacityKWh), nil
//	})
//	p, err := reg.Create(factory.ModuleConfig{Type: "energy", Conf: map[string]any{"battery_capacity_kwh": 3.2}})
package factory
