package advisor

import (
	"testing"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

func TestCascadeSafetyOverride(t *testing.T) {
	results := model.ResultSet{
		model.PredictorAnomaly: model.AnomalyResult{
			Detected:          true,
			Type:              "MOTOR_OVERHEAT",
			Severity:          model.SeverityCritical,
			RecommendedAction: "Reduce power immediately",
		},
		model.PredictorEnergy: model.EnergyResult{WillFinish: false, PredictedFinalSoC: 2},
		model.PredictorRacingLine: model.RacingLineResult{
			Confidence: 0.9, Recommendation: "ON_LINE",
		},
	}

	d := NewPriorityCascade().Fuse(results, model.RaceContext{})

	if d.Reason != SafetyOverrideReason {
		t.Fatalf("expected safety override, got reason %q", d.Reason)
	}
	if len(d.Actions) != 1 {
		t.Fatalf("override decision must carry exactly one action, got %d", len(d.Actions))
	}
	if d.Primary.Kind != model.ActionAnomalyDetected {
		t.Fatalf("unexpected primary action %s", d.Primary.Kind)
	}
	if d.Severity != model.SeverityCritical {
		t.Fatalf("unexpected severity %s", d.Severity)
	}
}

func TestCascadeAnomalySeverityMapping(t *testing.T) {
	results := model.ResultSet{
		model.PredictorAnomaly: model.AnomalyResult{
			Detected: true,
			Type:     "BEARING_WEAR",
			Severity: model.SeverityHigh,
		},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	if d.Primary.Kind != model.ActionAnomalyDetected || d.Primary.Severity != model.SeverityHigh {
		t.Fatalf("non-critical anomaly should map to HIGH, got %s/%s", d.Primary.Kind, d.Primary.Severity)
	}
	if d.Reason == SafetyOverrideReason {
		t.Fatal("a HIGH anomaly must not trigger the override path")
	}
}

func TestCascadeMedicalAlertOverride(t *testing.T) {
	results := model.ResultSet{
		model.PredictorFatigue: model.FatigueResult{
			Level: 1,
			MedicalAlerts: []model.MedicalAlert{{
				Severity: model.SeverityCritical,
				Alert:    "HYPOXIA_RISK",
				Value:    87,
				Action:   "PIT IMMEDIATELY - Driver oxygen saturation critical",
			}},
		},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	if d.Primary.Kind != model.ActionMedicalAlert || d.Reason != SafetyOverrideReason {
		t.Fatalf("critical medical alert should override: %s / %q", d.Primary.Kind, d.Reason)
	}
}

func TestCascadeAnomalyPrecedesMedicalAlert(t *testing.T) {
	// A vehicle anomaly outranks driver findings in the safety phase even
	// when the medical alert carries the higher severity: the lower-priority
	// alert must not reach the override path.
	results := model.ResultSet{
		model.PredictorAnomaly: model.AnomalyResult{
			Detected: true, Type: "BEARING_WEAR", Severity: model.SeverityHigh,
		},
		model.PredictorFatigue: model.FatigueResult{
			Level: 1,
			MedicalAlerts: []model.MedicalAlert{{
				Severity: model.SeverityCritical,
				Alert:    "HYPOXIA_RISK",
				Action:   "PIT IMMEDIATELY - Driver oxygen saturation critical",
			}},
		},
		model.PredictorEnergy: model.EnergyResult{
			WillFinish: true, PredictedFinalSoC: 12, Margin: 7,
		},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})

	if d.Primary.Kind != model.ActionAnomalyDetected {
		t.Fatalf("anomaly must stay primary, got %s", d.Primary.Kind)
	}
	if d.Reason == SafetyOverrideReason {
		t.Fatal("a HIGH anomaly must not short-circuit on a masked medical alert")
	}
	// The energy phase still runs, so the tight margin shows up alongside.
	if len(d.Actions) != 2 || d.Actions[1].Kind != model.ActionLowEnergyMargin {
		t.Fatalf("expected anomaly + low margin actions, got %+v", d.Actions)
	}
	if d.AlertCount != 2 {
		t.Fatalf("expected 2 alerts, got %d", d.AlertCount)
	}
}

func TestCascadeSingleSafetyAction(t *testing.T) {
	results := model.ResultSet{
		model.PredictorAnomaly: model.AnomalyResult{
			Detected: true, Type: "WHEEL_SLIP", Severity: model.SeverityHigh,
		},
		model.PredictorFatigue: model.FatigueResult{Level: 3, Pct: 80},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	if len(d.Actions) != 1 || d.AlertCount != 1 {
		t.Fatalf("safety phase must emit one action, got %d actions %d alerts",
			len(d.Actions), d.AlertCount)
	}
}

func TestCascadeHighFatigue(t *testing.T) {
	results := model.ResultSet{
		model.PredictorFatigue: model.FatigueResult{
			Level: 3, Pct: 82, Action: "MANDATORY pit stop - driver swap required",
		},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	if d.Primary.Kind != model.ActionHighFatigue {
		t.Fatalf("unexpected primary %s", d.Primary.Kind)
	}
	if d.Severity != model.SeverityHigh {
		t.Fatalf("level 3 fatigue should be HIGH, got %s", d.Severity)
	}
	if d.Primary.FatiguePct != 82 {
		t.Fatalf("fatigue pct should carry through, got %v", d.Primary.FatiguePct)
	}
}

func TestCascadeDNFRisk(t *testing.T) {
	results := model.ResultSet{
		model.PredictorEnergy: model.EnergyResult{
			WillFinish: false, PredictedFinalSoC: 3.1, Margin: -1.9,
		},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	if d.Primary.Kind != model.ActionDNFRisk || d.Severity != model.SeverityCritical {
		t.Fatalf("DNF risk expected, got %s/%s", d.Primary.Kind, d.Severity)
	}
	if d.Reason == SafetyOverrideReason {
		t.Fatal("energy phase findings must not use the safety override")
	}
	if d.AlertCount != 1 {
		t.Fatalf("expected 1 alert, got %d", d.AlertCount)
	}
}

func TestCascadeLowMargin(t *testing.T) {
	results := model.ResultSet{
		model.PredictorEnergy: model.EnergyResult{
			WillFinish: true, PredictedFinalSoC: 12, Margin: 7,
		},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	if d.Primary.Kind != model.ActionLowEnergyMargin || d.Severity != model.SeverityHigh {
		t.Fatalf("low margin expected, got %s/%s", d.Primary.Kind, d.Severity)
	}
}

func TestCascadeEnergySuppressesPerformance(t *testing.T) {
	results := model.ResultSet{
		model.PredictorEnergy: model.EnergyResult{
			WillFinish: true, PredictedFinalSoC: 11, Margin: 6,
		},
		model.PredictorRacingLine: model.RacingLineResult{
			Confidence: 0.95, Recommendation: "Tighten entry to turn 3",
		},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	for _, a := range d.Actions {
		if a.Kind == model.ActionPerformanceOptimization {
			t.Fatal("performance tips must not be emitted alongside energy actions")
		}
	}
}

func TestCascadeSafetyWarningSuppressesPerformance(t *testing.T) {
	// Any safety finding gates phase 3, even below the override threshold.
	results := model.ResultSet{
		model.PredictorAnomaly: model.AnomalyResult{
			Detected: true, Type: "WHEEL_IMBALANCE", Severity: model.SeverityWarning,
		},
		model.PredictorEfficiency: model.EfficiencyResult{
			EfficiencyGain: 4.5, Recommendation: "Smooth throttle to 40%",
		},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	for _, a := range d.Actions {
		if a.Kind == model.ActionPerformanceOptimization {
			t.Fatal("performance tips must not be emitted alongside safety actions")
		}
	}
}

func TestCascadePerformanceTips(t *testing.T) {
	results := model.ResultSet{
		model.PredictorEnergy: model.EnergyResult{
			WillFinish: true, PredictedFinalSoC: 35, Margin: 30,
		},
		model.PredictorRacingLine: model.RacingLineResult{
			Confidence: 0.85, Recommendation: "Hold the current line",
		},
		model.PredictorEfficiency: model.EfficiencyResult{
			EfficiencyGain: 3.2, Recommendation: "Reduce throttle to 42%",
		},
		model.PredictorSlipCoast: model.SlipCoastResult{
			SlipDetected: false, OptimalCoastRatio: 62,
			Recommendation: "Lift earlier before turn 5",
		},
	}
	rctx := model.RaceContext{Phase: model.PhaseMid}
	d := NewPriorityCascade().Fuse(results, rctx)

	if d.Primary.Kind != model.ActionPerformanceOptimization {
		t.Fatalf("expected performance action, got %s", d.Primary.Kind)
	}
	if len(d.Primary.Tips) != 3 {
		t.Fatalf("expected 3 tips, got %d", len(d.Primary.Tips))
	}
	if d.Primary.RacePhase != model.PhaseMid {
		t.Fatalf("phase should carry into the action, got %s", d.Primary.RacePhase)
	}
	if d.Severity != model.SeverityNormal || d.AlertCount != 0 {
		t.Fatalf("performance advice is not an alert: %s / %d", d.Severity, d.AlertCount)
	}
}

func TestCascadeSlipBeatsCoasting(t *testing.T) {
	results := model.ResultSet{
		model.PredictorEnergy: model.EnergyResult{WillFinish: true, Margin: 25},
		model.PredictorSlipCoast: model.SlipCoastResult{
			SlipDetected: true, SlipSeverity: "MEDIUM", OptimalCoastRatio: 70,
			Recommendation: "Reduce throttle aggression",
		},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	if len(d.Primary.Tips) != 1 {
		t.Fatalf("expected 1 tip, got %d", len(d.Primary.Tips))
	}
	tip := d.Primary.Tips[0]
	if tip.Type != "TRACTION_CONTROL" || tip.Severity != "MEDIUM" {
		t.Fatalf("slip tip expected, got %+v", tip)
	}
}

func TestCascadeQuietResultsYieldNormalOperation(t *testing.T) {
	results := model.ResultSet{
		model.PredictorEnergy: model.EnergyResult{
			WillFinish: true, PredictedFinalSoC: 40, Margin: 35,
		},
		model.PredictorRacingLine: model.RacingLineResult{Confidence: 0.4},
		model.PredictorEfficiency: model.EfficiencyResult{EfficiencyGain: 0.5},
		model.PredictorSlipCoast:  model.SlipCoastResult{OptimalCoastRatio: 30},
	}
	d := NewPriorityCascade().Fuse(results, model.RaceContext{})
	if d.Primary.Kind != model.ActionNormalOperation {
		t.Fatalf("expected NORMAL_OPERATION, got %s", d.Primary.Kind)
	}
	if len(d.Actions) != 0 || d.AlertCount != 0 || d.Severity != model.SeverityNormal {
		t.Fatalf("quiet decision should be empty: %+v", d)
	}
}

func TestCascadeEmptyResults(t *testing.T) {
	d := NewPriorityCascade().Fuse(model.ResultSet{}, model.RaceContext{})
	if d.Primary.Kind != model.ActionNormalOperation || d.Severity != model.SeverityNormal {
		t.Fatalf("empty result set should fuse to normal operation, got %+v", d)
	}
}
