package racectx

import (
	"fmt"
	"sync"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/logger"
	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// Config sizes the race the tracker follows.
type Config struct {
	TotalLaps int     `koanf:"total_laps" json:"total_laps"`
	TargetSoC float64 `koanf:"soc_target" json:"soc_target"`
}

// SetDefaults fills the zero-valued fields.
func (c *Config) SetDefaults() {
	if c.TotalLaps == 0 {
		c.TotalLaps = 10
	}
	if c.TargetSoC == 0 {
		c.TargetSoC = 5
	}
}

// Validate rejects race parameters the tracker cannot follow.
func (c *Config) Validate() error {
	if c.TotalLaps < 0 {
		return fmt.Errorf("racectx: total_laps must be positive, got %d", c.TotalLaps)
	}
	return nil
}

// Tracker owns the authoritative race context. Telemetry, standings and
// crew inputs all funnel through it; consumers get value snapshots.
type Tracker struct {
	mu  sync.RWMutex
	ctx model.RaceContext
	log logger.Logger
}

// New builds a tracker at lap zero with the configured race length.
func New(cfg Config, log logger.Logger) (*Tracker, error) {
	if log == nil {
		return nil, fmt.Errorf("racectx: nil parameter provided to New")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{
		ctx: model.RaceContext{
			Phase:          model.PhasePractice,
			TotalLaps:      cfg.TotalLaps,
			LapsRemaining:  cfg.TotalLaps,
			TargetSoC:      cfg.TargetSoC,
			Condition:      model.TrackDry,
			WeatherFactor:  1.0,
			VehicleStatus:  "READY",
			DriverStatus:   "READY",
			Aggressiveness: model.AggressivenessModerate,
			UpdatedAt:      time.Now().UTC(),
		},
		log: log,
	}, nil
}

// Snapshot returns a copy of the current context.
func (t *Tracker) Snapshot() model.RaceContext {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ctx
}

// UpdateFromTelemetry folds a sample into the context: lap counter,
// charge, weather and the derived phase and posture.
func (t *Tracker) UpdateFromTelemetry(sample model.TelemetrySample) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if soc, ok := sample.Get(model.KeySocCurrent); ok {
		t.ctx.CurrentSoC = soc
	}
	if lap, ok := sample.Get(model.KeyLapCurrent); ok {
		t.setLapLocked(int(lap))
	}
	if total, ok := sample.Get(model.KeyTotalLaps); ok && int(total) > 0 {
		t.ctx.TotalLaps = int(total)
	}
	if sample.Has(model.KeyWindSpeed) || sample.Has(model.KeyRainIntensity) {
		t.ctx.Condition = model.AssessTrackCondition(
			sample.Value(model.KeyWindSpeed),
			sample.Value(model.KeyRainIntensity),
		)
		t.ctx.WeatherFactor = t.ctx.Condition.WeatherFactor()
	}
	t.refreshLocked()
}

// AdvanceLap increments the lap counter by one.
func (t *Tracker) AdvanceLap() model.RaceContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLapLocked(t.ctx.CurrentLap + 1)
	t.refreshLocked()
	t.log.Infof("lap %d/%d, phase %s", t.ctx.CurrentLap, t.ctx.TotalLaps, t.ctx.Phase)
	return t.ctx
}

// SetLap jumps the lap counter, e.g. after a timing-feed correction.
func (t *Tracker) SetLap(lap int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLapLocked(lap)
	t.refreshLocked()
}

// SetRank records the live standing and its confidence.
func (t *Tracker) SetRank(rank int, confidence float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctx.CurrentRank = rank
	t.ctx.RankConfidence = confidence
	t.ctx.UpdatedAt = time.Now().UTC()
}

// SetStatus updates the crew-reported vehicle and driver status. Empty
// strings leave the current value untouched.
func (t *Tracker) SetStatus(vehicle, driver string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if vehicle != "" {
		t.ctx.VehicleStatus = vehicle
	}
	if driver != "" {
		t.ctx.DriverStatus = driver
	}
	t.ctx.UpdatedAt = time.Now().UTC()
}

// PlanPitStop registers an upcoming pit stop with its ETA and the reason
// driving it. The crew checklist is derived from the reason.
func (t *Tracker) PlanPitStop(reason string, etaSeconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctx.PitPlanned = true
	t.ctx.PitReason = reason
	t.ctx.PitETASeconds = etaSeconds
	t.ctx.PitActions = RecommendedPitActions(reason)
	t.ctx.UpdatedAt = time.Now().UTC()
	t.log.Infof("pit stop planned for %s, ETA %ds", reason, etaSeconds)
}

// ClearPitStop drops the planned pit stop.
func (t *Tracker) ClearPitStop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctx.PitPlanned = false
	t.ctx.PitReason = ""
	t.ctx.PitETASeconds = 0
	t.ctx.PitActions = nil
	t.ctx.UpdatedAt = time.Now().UTC()
}

// RecommendedPitActions maps a pit reason onto the crew checklist for the
// stop. Unknown reasons fall back to a generic stop.
func RecommendedPitActions(reason string) []string {
	switch reason {
	case "TIRE_PRESSURE":
		return []string{
			"Check tire pressure on all wheels",
			"Adjust pressure to optimal +-0.1 bar",
			"Test handling after adjustment",
		}
	case "ENERGY_STRATEGY":
		return []string{
			"Analyze efficiency trends",
			"Adjust driver throttle strategy",
			"Brief driver on track sections",
		}
	case "MECHANICAL":
		return []string{
			"Inspect motor connections",
			"Check battery parameters",
			"Verify all sensors",
			"Tighten any loose components",
		}
	case "DRIVER_REST":
		return []string{
			"Driver takes 5-minute rest",
			"Rehydration and cooling",
			"Fatigue assessment",
			"Driver change if needed",
		}
	case "EVALUATION":
		return []string{
			"Full system diagnostic",
			"Review telemetry data",
			"Plan strategy adjustment",
			"Check weather forecast",
		}
	default:
		return []string{"General pit stop"}
	}
}

// AdaptiveParameters derives the pace posture for the current context.
func (t *Tracker) AdaptiveParameters() model.AdaptiveParameters {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return model.AdaptiveParametersFor(t.ctx.Phase, t.ctx.CurrentSoC)
}

func (t *Tracker) setLapLocked(lap int) {
	if lap < 0 {
		lap = 0
	}
	t.ctx.CurrentLap = lap
	remaining := t.ctx.TotalLaps - lap
	if remaining < 0 {
		remaining = 0
	}
	t.ctx.LapsRemaining = remaining
}

// refreshLocked recomputes the derived fields after any state change.
func (t *Tracker) refreshLocked() {
	t.ctx.Phase = model.PhaseForLap(t.ctx.CurrentLap, t.ctx.TotalLaps)
	t.ctx.Aggressiveness = model.AdaptiveParametersFor(t.ctx.Phase, t.ctx.CurrentSoC).Aggressiveness
	t.ctx.UpdatedAt = time.Now().UTC()
}
