package model

import (
	"fmt"
	"time"
)

// Severity orders advisory urgency. Comparisons rely on the declaration
// order: Normal < Warning < High < Critical < Emergency.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityHigh
	SeverityCritical
	SeverityEmergency
)

func (s Severity) String() string {
	switch s {
	case SeverityNormal:
		return "NORMAL"
	case SeverityWarning:
		return "WARNING"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityEmergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "NORMAL":
		*s = SeverityNormal
	case "WARNING":
		*s = SeverityWarning
	case "HIGH":
		*s = SeverityHigh
	case "CRITICAL":
		*s = SeverityCritical
	case "EMERGENCY":
		*s = SeverityEmergency
	default:
		return fmt.Errorf("unknown severity: %s", b)
	}
	return nil
}

// IsAlert reports whether the severity counts toward the decision alert
// tally (Warning and above).
func (s Severity) IsAlert() bool { return s >= SeverityWarning }

// MaxSeverity returns the higher of a and b.
func MaxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// ActionKind names the advisory action a cascade phase produced.
type ActionKind int

const (
	ActionNormalOperation ActionKind = iota
	ActionAnomalyDetected
	ActionMedicalAlert
	ActionHighFatigue
	ActionDNFRisk
	ActionLowEnergyMargin
	ActionPerformanceOptimization
	ActionFallbackAdvisory
)

func (k ActionKind) String() string {
	switch k {
	case ActionNormalOperation:
		return "NORMAL_OPERATION"
	case ActionAnomalyDetected:
		return "ANOMALY_DETECTED"
	case ActionMedicalAlert:
		return "MEDICAL_ALERT"
	case ActionHighFatigue:
		return "HIGH_FATIGUE"
	case ActionDNFRisk:
		return "DNF_RISK"
	case ActionLowEnergyMargin:
		return "LOW_ENERGY_MARGIN"
	case ActionPerformanceOptimization:
		return "PERFORMANCE_OPTIMIZATION"
	case ActionFallbackAdvisory:
		return "FALLBACK_ADVISORY"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ActionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ActionKind) UnmarshalText(b []byte) error {
	for _, kind := range []ActionKind{
		ActionNormalOperation, ActionAnomalyDetected, ActionMedicalAlert,
		ActionHighFatigue, ActionDNFRisk, ActionLowEnergyMargin,
		ActionPerformanceOptimization, ActionFallbackAdvisory,
	} {
		if kind.String() == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown action kind: %s", b)
}

// PerformanceTip is one optimization suggestion bundled into a
// performance action.
type PerformanceTip struct {
	Type           string  `json:"type"` // RACING_LINE, THROTTLE_OPTIMIZATION, TRACTION_CONTROL, COASTING_OPTIMIZATION
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence,omitempty"`
	EfficiencyGain float64 `json:"efficiency_gain,omitempty"`
	CoastRatio     float64 `json:"coast_ratio,omitempty"`
	Severity       string  `json:"severity,omitempty"` // slip severity band for traction tips
}

// CascadeAction is one action emitted by a cascade phase. Only the fields
// relevant to the kind are populated.
type CascadeAction struct {
	Kind            ActionKind `json:"action"`
	Severity        Severity   `json:"severity"`
	Reason          string     `json:"reason,omitempty"`
	Recommendation  string     `json:"recommendation,omitempty"`
	Recommendations []string   `json:"recommendations,omitempty"`

	// Safety payload.
	AnomalyType     string  `json:"anomaly_type,omitempty"`
	LeadTimeSeconds float64 `json:"lead_time_seconds,omitempty"`
	FatiguePct      float64 `json:"fatigue_pct,omitempty"`

	// Energy payload.
	PredictedFinalSoC float64 `json:"predicted_final_soc,omitempty"`
	Margin            float64 `json:"margin,omitempty"`

	// Performance payload.
	RacePhase RacePhase        `json:"race_phase,omitempty"`
	Tips      []PerformanceTip `json:"phase_specific_recommendations,omitempty"`
}

// Decision is the fused output of one advisory cycle.
type Decision struct {
	CycleID         string          `json:"cycle_id"`
	VehicleID       string          `json:"vehicle_id,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	Primary         CascadeAction   `json:"primary_action"`
	Actions         []CascadeAction `json:"cascade_actions"`
	Severity        Severity        `json:"severity"`
	Reason          string          `json:"reason,omitempty"`
	AlertCount      int             `json:"count_alerts"`
	Phase           RacePhase       `json:"race_phase"`
	Lap             int             `json:"lap"`
	ModelsExecuted  []string        `json:"models_executed"`
	ModelsSkipped   []string        `json:"models_skipped,omitempty"`
	InferenceMillis float64         `json:"total_inference_ms"`
	Fallback        bool            `json:"fallback,omitempty"`
}

// IsCritical reports whether the decision demands immediate crew action.
func (d Decision) IsCritical() bool {
	return d.Severity >= SeverityCritical
}

// FallbackRecommendations is the fixed advice attached to a fallback
// decision when telemetry cannot be trusted.
var FallbackRecommendations = []string{
	"Monitor systems manually",
	"Reduce speed to safe level",
	"Pit for inspection if needed",
}
