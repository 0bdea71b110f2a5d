package advisor

import (
	"fmt"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// SafetyOverrideReason marks a decision cut short by a critical safety
// finding. When present, the decision carries exactly one action.
const SafetyOverrideReason = "SAFETY OVERRIDE"

// PriorityCascade fuses predictor results into a single decision through
// three phases: safety, energy, performance. Safety findings at critical
// severity short-circuit the cascade; performance advice is only emitted
// when the two preceding phases stayed quiet.
type PriorityCascade struct{}

// NewPriorityCascade returns a cascade with the fixed phase ordering.
func NewPriorityCascade() *PriorityCascade { return &PriorityCascade{} }

// Fuse folds the result set into a decision skeleton. The caller stamps
// identity, timing and execution bookkeeping afterwards.
func (c *PriorityCascade) Fuse(results model.ResultSet, rctx model.RaceContext) model.Decision {
	safety := c.safetyPhase(results)

	// A critical safety action overrides everything else: the crew sees
	// one instruction, not a list.
	for _, a := range safety {
		if a.Severity >= model.SeverityCritical {
			return model.Decision{
				Primary:    a,
				Actions:    []model.CascadeAction{a},
				Severity:   a.Severity,
				Reason:     SafetyOverrideReason,
				AlertCount: 1,
			}
		}
	}

	actions := safety
	energy := c.energyPhase(results)
	actions = append(actions, energy...)

	// Performance advice is suppressed as soon as safety or energy has
	// anything to say, whatever the severity.
	if len(actions) == 0 {
		actions = append(actions, c.performancePhase(results, rctx)...)
	}

	d := model.Decision{Actions: actions}
	if len(actions) > 0 {
		d.Primary = actions[0]
		d.Reason = actions[0].Reason
	} else {
		d.Primary = model.CascadeAction{
			Kind:     model.ActionNormalOperation,
			Severity: model.SeverityNormal,
		}
	}

	for _, a := range actions {
		d.Severity = model.MaxSeverity(d.Severity, a.Severity)
		if a.Severity.IsAlert() {
			d.AlertCount++
		}
	}
	// An energy shortfall is never reported below Warning, even when the
	// action list resolves lower.
	if len(energy) > 0 && d.Severity < model.SeverityWarning {
		d.Severity = model.SeverityWarning
	}
	return d
}

// safetyPhase yields at most one action. Vehicle anomalies take precedence
// over medical alerts, which take precedence over fatigue; a lower-priority
// finding never displaces a higher one, whatever its severity.
func (c *PriorityCascade) safetyPhase(results model.ResultSet) []model.CascadeAction {
	if anomaly, ok := results.Anomaly(); ok && anomaly.Detected {
		sev := model.SeverityHigh
		if anomaly.Severity == model.SeverityCritical {
			sev = model.SeverityCritical
		}
		return []model.CascadeAction{{
			Kind:            model.ActionAnomalyDetected,
			Severity:        sev,
			Reason:          fmt.Sprintf("Anomaly detected: %s", anomaly.Type),
			Recommendation:  anomaly.RecommendedAction,
			AnomalyType:     anomaly.Type,
			LeadTimeSeconds: anomaly.LeadTimeSeconds,
		}}
	}

	fatigue, ok := results.Fatigue()
	if !ok {
		return nil
	}
	if len(fatigue.MedicalAlerts) > 0 {
		worst := fatigue.MedicalAlerts[0]
		for _, alert := range fatigue.MedicalAlerts[1:] {
			if alert.Severity > worst.Severity {
				worst = alert
			}
		}
		return []model.CascadeAction{{
			Kind:           model.ActionMedicalAlert,
			Severity:       worst.Severity,
			Reason:         fmt.Sprintf("Medical alert: %s", worst.Alert),
			Recommendation: worst.Action,
		}}
	}
	if fatigue.Level >= 3 {
		return []model.CascadeAction{{
			Kind:           model.ActionHighFatigue,
			Severity:       model.SeverityHigh,
			Reason:         fmt.Sprintf("Driver fatigue at %.0f%%", fatigue.Pct),
			Recommendation: fatigue.Action,
			FatiguePct:     fatigue.Pct,
		}}
	}
	return nil
}

func (c *PriorityCascade) energyPhase(results model.ResultSet) []model.CascadeAction {
	energy, ok := results.Energy()
	if !ok {
		return nil
	}

	if !energy.WillFinish {
		return []model.CascadeAction{{
			Kind:              model.ActionDNFRisk,
			Severity:          model.SeverityCritical,
			Reason:            fmt.Sprintf("Predicted final SoC %.1f%% below reserve", energy.PredictedFinalSoC),
			Recommendation:    "Reduce power consumption immediately",
			PredictedFinalSoC: energy.PredictedFinalSoC,
			Margin:            energy.Margin,
		}}
	}
	if energy.Margin < 10 {
		return []model.CascadeAction{{
			Kind:              model.ActionLowEnergyMargin,
			Severity:          model.SeverityHigh,
			Reason:            fmt.Sprintf("Energy margin %.1f%% is tight", energy.Margin),
			Recommendation:    "Adopt conservative pace to protect the finish",
			PredictedFinalSoC: energy.PredictedFinalSoC,
			Margin:            energy.Margin,
		}}
	}
	return nil
}

func (c *PriorityCascade) performancePhase(results model.ResultSet, rctx model.RaceContext) []model.CascadeAction {
	var tips []model.PerformanceTip

	if line, ok := results.RacingLine(); ok && line.Confidence > 0.7 {
		tips = append(tips, model.PerformanceTip{
			Type:           "RACING_LINE",
			Recommendation: line.Recommendation,
			Confidence:     line.Confidence,
		})
	}
	if eff, ok := results.Efficiency(); ok && eff.EfficiencyGain > 2 {
		tips = append(tips, model.PerformanceTip{
			Type:           "THROTTLE_OPTIMIZATION",
			Recommendation: eff.Recommendation,
			EfficiencyGain: eff.EfficiencyGain,
		})
	}
	if sc, ok := results.SlipCoast(); ok {
		if sc.SlipDetected {
			tips = append(tips, model.PerformanceTip{
				Type:           "TRACTION_CONTROL",
				Recommendation: sc.Recommendation,
				Severity:       sc.SlipSeverity,
			})
		} else if sc.OptimalCoastRatio > 50 {
			tips = append(tips, model.PerformanceTip{
				Type:           "COASTING_OPTIMIZATION",
				Recommendation: sc.Recommendation,
				CoastRatio:     sc.OptimalCoastRatio,
			})
		}
	}

	if len(tips) == 0 {
		return nil
	}
	return []model.CascadeAction{{
		Kind:      model.ActionPerformanceOptimization,
		Severity:  model.SeverityNormal,
		Reason:    fmt.Sprintf("%d optimization opportunities in the %s phase", len(tips), rctx.Phase),
		RacePhase: rctx.Phase,
		Tips:      tips,
	}}
}
