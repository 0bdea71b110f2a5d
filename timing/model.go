package timing

import (
	"fmt"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// Standings represents the payload received from the timing tower: the
// live position of our vehicle plus the efficiency distribution of the
// rest of the field.
type Standings struct {
	VehicleID           string    `json:"vehicle_id"`
	Rank                int       `json:"rank"`
	FleetSize           int       `json:"fleet_size"`
	Lap                 int       `json:"lap"`
	GapAheadSeconds     float64   `json:"gap_ahead_seconds"`
	FleetEfficiencyMean float64   `json:"fleet_efficiency_mean"`
	FleetEfficiencyStd  float64   `json:"fleet_efficiency_std"`
	OurEfficiency       float64   `json:"our_efficiency"`
	Confidence          float64   `json:"confidence"`
	Timestamp           time.Time `json:"timestamp"`
}

// Validate checks that the standings payload is usable.
func (s Standings) Validate() error {
	if s.Rank < 1 {
		return fmt.Errorf("rank must be at least 1, got %d", s.Rank)
	}
	if s.FleetSize < s.Rank {
		return fmt.Errorf("fleet_size %d smaller than rank %d", s.FleetSize, s.Rank)
	}
	if s.Lap < 0 {
		return fmt.Errorf("lap must not be negative, got %d", s.Lap)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("confidence must be within [0,1], got %v", s.Confidence)
	}
	if s.FleetEfficiencyStd < 0 {
		return fmt.Errorf("fleet_efficiency_std must not be negative, got %v", s.FleetEfficiencyStd)
	}
	return nil
}

// Channels converts the fleet statistics into telemetry channels so the
// rank model sees them on its next run. Zero-valued statistics are left
// out rather than published as zeros.
func (s Standings) Channels() model.TelemetrySample {
	sample := make(model.TelemetrySample)
	if s.FleetSize > 0 {
		sample.Set(model.KeyFleetSize, float64(s.FleetSize))
	}
	if s.FleetEfficiencyMean > 0 {
		sample.Set(model.KeyFleetEffMean, s.FleetEfficiencyMean)
	}
	if s.FleetEfficiencyStd > 0 {
		sample.Set(model.KeyFleetEffStd, s.FleetEfficiencyStd)
	}
	if s.OurEfficiency > 0 {
		sample.Set(model.KeyOurEff, s.OurEfficiency)
	}
	return sample
}
