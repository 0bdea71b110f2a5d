package model

import (
	"fmt"
	"time"
)

// RacePhase identifies the stage of the race used for context-aware advice.
type RacePhase int

const (
	PhasePractice RacePhase = iota
	PhaseEarly
	PhaseMid
	PhaseLate
	PhaseFinish
)

// String returns the wire name of the phase.
func (p RacePhase) String() string {
	switch p {
	case PhasePractice:
		return "PRACTICE"
	case PhaseEarly:
		return "EARLY"
	case PhaseMid:
		return "MID"
	case PhaseLate:
		return "LATE"
	case PhaseFinish:
		return "FINISH"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p RacePhase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *RacePhase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "PRACTICE":
		*p = PhasePractice
	case "EARLY":
		*p = PhaseEarly
	case "MID":
		*p = PhaseMid
	case "LATE":
		*p = PhaseLate
	case "FINISH":
		*p = PhaseFinish
	default:
		return fmt.Errorf("unknown race phase: %s", b)
	}
	return nil
}

// PhaseForLap derives the race phase from the lap counter. The mapping is
// exhaustive: lap 0 is practice, laps 1-2 the early stint, the final lap is
// the late stint, anything past it the finish, and everything between is
// mid-race.
func PhaseForLap(lap, totalLaps int) RacePhase {
	switch {
	case lap == 0:
		return PhasePractice
	case lap <= 2:
		return PhaseEarly
	case lap > totalLaps:
		return PhaseFinish
	case lap == totalLaps:
		return PhaseLate
	default:
		return PhaseMid
	}
}

// TrackCondition classifies the track surface from weather inputs.
type TrackCondition int

const (
	TrackDry TrackCondition = iota
	TrackWet
	TrackRain
	TrackStrongWind
)

func (c TrackCondition) String() string {
	switch c {
	case TrackDry:
		return "DRY"
	case TrackWet:
		return "WET"
	case TrackRain:
		return "RAIN"
	case TrackStrongWind:
		return "STRONG_WIND"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c TrackCondition) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *TrackCondition) UnmarshalText(b []byte) error {
	switch string(b) {
	case "DRY":
		*c = TrackDry
	case "WET":
		*c = TrackWet
	case "RAIN":
		*c = TrackRain
	case "STRONG_WIND":
		*c = TrackStrongWind
	default:
		return fmt.Errorf("unknown track condition: %s", b)
	}
	return nil
}

// WeatherFactor returns the pace multiplier associated with the condition.
func (c TrackCondition) WeatherFactor() float64 {
	switch c {
	case TrackRain:
		return 0.85
	case TrackWet:
		return 0.90
	case TrackStrongWind:
		return 0.92
	default:
		return 1.0
	}
}

// AssessTrackCondition classifies the surface from live weather channels.
// Rain dominates wind: a soaked track is the limiting factor regardless of
// gusts.
func AssessTrackCondition(windSpeed, rainIntensity float64) TrackCondition {
	switch {
	case rainIntensity > 0.5:
		return TrackRain
	case rainIntensity > 0.2:
		return TrackWet
	case windSpeed > 8:
		return TrackStrongWind
	default:
		return TrackDry
	}
}

// Aggressiveness is the pace posture derived from phase and energy state.
type Aggressiveness int

const (
	AggressivenessModerate Aggressiveness = iota
	AggressivenessBalanced
	AggressivenessConservative
	AggressivenessSurvival
)

func (a Aggressiveness) String() string {
	switch a {
	case AggressivenessModerate:
		return "MODERATE"
	case AggressivenessBalanced:
		return "BALANCED"
	case AggressivenessConservative:
		return "CONSERVATIVE"
	case AggressivenessSurvival:
		return "SURVIVAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Aggressiveness) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// RaceContext is the shared race state every advisory cycle reads. It is
// owned by the context tracker; consumers receive value snapshots.
type RaceContext struct {
	Phase          RacePhase      `json:"race_phase"`
	CurrentLap     int            `json:"current_lap"`
	TotalLaps      int            `json:"total_laps"`
	LapsRemaining  int            `json:"laps_remaining"`
	CurrentSoC     float64        `json:"current_soc"`     // percent 0-100
	TargetSoC      float64        `json:"soc_target"`      // minimum reserve at finish
	Condition      TrackCondition `json:"track_condition"`
	WeatherFactor  float64        `json:"weather_factor"`
	CurrentRank    int            `json:"current_rank"`
	RankConfidence float64        `json:"ranking_confidence"`
	VehicleStatus  string         `json:"vehicle_status"`
	DriverStatus   string         `json:"driver_status"`
	PitPlanned     bool           `json:"pit_stop_planned"`
	PitReason      string         `json:"pit_stop_reason,omitempty"`
	PitETASeconds  int            `json:"pit_stop_eta"`
	PitActions     []string       `json:"pit_stop_actions,omitempty"`
	Aggressiveness Aggressiveness `json:"aggressiveness"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// AdaptiveParameters are the pace posture settings for the current context.
type AdaptiveParameters struct {
	Aggressiveness      Aggressiveness `json:"aggressiveness"`
	SafetyMargin        float64        `json:"safety_margin"`
	ConfidenceThreshold float64        `json:"confidence_threshold"`
	OptimizationAllowed bool           `json:"optimization_allowed"`
	PitRecommended      bool           `json:"pit_recommended"`
}

// AdaptiveParametersFor maps phase and charge onto the aggressiveness
// matrix. Late-race survival keeps the widest safety margin.
func AdaptiveParametersFor(phase RacePhase, soc float64) AdaptiveParameters {
	var (
		level     Aggressiveness
		margin    float64
		threshold float64
	)
	switch phase {
	case PhaseMid:
		switch {
		case soc > 25:
			level, margin, threshold = AggressivenessModerate, 1.5, 0.7
		case soc > 15:
			level, margin, threshold = AggressivenessBalanced, 1.3, 0.75
		default:
			level, margin, threshold = AggressivenessConservative, 1.8, 0.8
		}
	case PhaseLate, PhaseFinish:
		switch {
		case soc > 15:
			level, margin, threshold = AggressivenessModerate, 1.3, 0.7
		case soc > 8:
			level, margin, threshold = AggressivenessConservative, 2.0, 0.8
		default:
			level, margin, threshold = AggressivenessSurvival, 3.0, 0.85
		}
	default:
		level, margin, threshold = AggressivenessModerate, 1.5, 0.7
	}
	return AdaptiveParameters{
		Aggressiveness:      level,
		SafetyMargin:        margin,
		ConfidenceThreshold: threshold,
		OptimizationAllowed: level != AggressivenessSurvival,
		PitRecommended:      (level == AggressivenessConservative || level == AggressivenessSurvival) && soc < 20,
	}
}
