// Package scenarios drives the advisory engine through YAML-defined
// race situations and checks the fused decision.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// FrameDef is one telemetry snapshot, channel name to value.
type FrameDef map[string]float64

// ToSample converts the frame into a telemetry sample.
func (f FrameDef) ToSample() model.TelemetrySample {
	sample := make(model.TelemetrySample, len(f))
	for k, v := range f {
		sample[k] = v
	}
	return sample
}

// ContextDef seeds the race context before the first frame.
type ContextDef struct {
	Lap       int `yaml:"lap"`
	TotalLaps int `yaml:"total_laps"`
	Rank      int `yaml:"rank,omitempty"`
}

// Expected describes the decision the final frame must produce.
type Expected struct {
	Primary   string `yaml:"primary"`
	Severity  string `yaml:"severity"`
	Fallback  bool   `yaml:"fallback,omitempty"`
	MinAlerts int    `yaml:"min_alerts,omitempty"`
	Reason    string `yaml:"reason,omitempty"`
}

// Scenario is a full situation: context seed, telemetry frames, and the
// decision expected after the last frame.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Context     ContextDef `yaml:"context"`
	Frames      []FrameDef `yaml:"frames"`
	Expected    Expected   `yaml:"expected"`
}

// Load reads a scenario definition from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
