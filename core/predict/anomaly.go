package predict

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// Hard thresholds for the rule-based anomaly checks.
const (
	bearingFFTThreshold     = 100.0
	motorTempHighThreshold  = 90.0
	motorTempCritThreshold  = 100.0
	batteryCellTempLimit    = 60.0
	wheelVarianceThreshold  = 50.0
	currentDrawThreshold    = 200.0
	anomalyLeadTimeSeconds  = 60.0
	zScoreWarningThreshold  = 3.0
	zScoreHighThreshold     = 5.0
	baselineWindow          = 50
	baselineMinObservations = 10
)

// baselineChannels are the channels watched for statistical drift on top
// of the hard-threshold rules.
var baselineChannels = []string{
	model.KeyVibrationRMS,
	model.KeyMotorTemp,
	model.KeyCurrentDraw,
}

// AnomalyPredictor detects vehicle faults with fixed-threshold rules plus
// a rolling z-score over selected channels. It keeps per-channel history,
// so one instance serves one vehicle.
type AnomalyPredictor struct {
	mu      sync.Mutex
	history map[string][]float64
}

// NewAnomalyPredictor returns a predictor with empty baselines.
func NewAnomalyPredictor() *AnomalyPredictor {
	return &AnomalyPredictor{history: make(map[string][]float64)}
}

func (p *AnomalyPredictor) ID() model.PredictorID { return model.PredictorAnomaly }

// Predict evaluates every rule and returns the most severe finding. A
// quiet sample yields a result with Detected=false rather than an error,
// so the cascade always knows the check ran.
func (p *AnomalyPredictor) Predict(sample model.TelemetrySample) (any, error) {
	findings := p.ruleFindings(sample)
	findings = append(findings, p.driftFindings(sample)...)

	best := model.AnomalyResult{Detected: false, Type: "NONE"}
	for _, f := range findings {
		if !best.Detected || f.Severity > best.Severity ||
			(f.Severity == best.Severity && f.Confidence > best.Confidence) {
			best = f
		}
	}
	for _, f := range findings {
		best.Evidence = append(best.Evidence, f.Evidence...)
	}
	return best, nil
}

func (p *AnomalyPredictor) ruleFindings(sample model.TelemetrySample) []model.AnomalyResult {
	var findings []model.AnomalyResult

	if fft, ok := sample.Get(model.KeyVibrationFFT50Hz); ok && fft > bearingFFTThreshold {
		findings = append(findings, model.AnomalyResult{
			Detected:          true,
			Type:              "BEARING_WEAR",
			Severity:          model.SeverityHigh,
			Confidence:        0.85,
			RecommendedAction: "Schedule bearing inspection at next pit stop",
			Evidence:          []string{fmt.Sprintf("50Hz vibration peak %.1f exceeds %.0f", fft, bearingFFTThreshold)},
			LeadTimeSeconds:   anomalyLeadTimeSeconds,
		})
	}
	if temp, ok := sample.Get(model.KeyMotorTemp); ok && temp > motorTempHighThreshold {
		sev := model.SeverityHigh
		action := "Reduce power and monitor motor temperature"
		if temp > motorTempCritThreshold {
			sev = model.SeverityCritical
			action = "Reduce power immediately - motor overheating"
		}
		findings = append(findings, model.AnomalyResult{
			Detected:          true,
			Type:              "MOTOR_OVERHEAT",
			Severity:          sev,
			Confidence:        0.9,
			RecommendedAction: action,
			Evidence:          []string{fmt.Sprintf("motor temperature %.1f°C", temp)},
			LeadTimeSeconds:   anomalyLeadTimeSeconds,
		})
	}
	if cell, ok := sample.Get(model.KeyBatteryCellTemp); ok && cell > batteryCellTempLimit {
		findings = append(findings, model.AnomalyResult{
			Detected:          true,
			Type:              "BATTERY_OVERHEAT",
			Severity:          model.SeverityHigh,
			Confidence:        0.85,
			RecommendedAction: "Reduce discharge rate to cool battery pack",
			Evidence:          []string{fmt.Sprintf("max cell temperature %.1f°C exceeds %.0f°C", cell, batteryCellTempLimit)},
			LeadTimeSeconds:   anomalyLeadTimeSeconds,
		})
	}
	if wv, ok := sample.Get(model.KeyWheelSpeedVar); ok && wv > wheelVarianceThreshold {
		findings = append(findings, model.AnomalyResult{
			Detected:          true,
			Type:              "WHEEL_IMBALANCE",
			Severity:          model.SeverityWarning,
			Confidence:        0.75,
			RecommendedAction: "Check wheel balance and tire condition at pit",
			Evidence:          []string{fmt.Sprintf("wheel speed variance %.1f", wv)},
			LeadTimeSeconds:   anomalyLeadTimeSeconds,
		})
	}
	if amps, ok := sample.Get(model.KeyCurrentDraw); ok && amps > currentDrawThreshold {
		findings = append(findings, model.AnomalyResult{
			Detected:          true,
			Type:              "EXCESSIVE_CURRENT",
			Severity:          model.SeverityHigh,
			Confidence:        0.8,
			RecommendedAction: "Check for drivetrain drag or short circuit",
			Evidence:          []string{fmt.Sprintf("current draw %.0fA exceeds %.0fA", amps, currentDrawThreshold)},
			LeadTimeSeconds:   anomalyLeadTimeSeconds,
		})
	}
	return findings
}

// driftFindings compares watched channels against their rolling baseline.
// The baseline is updated after the comparison so a spike cannot mask
// itself.
func (p *AnomalyPredictor) driftFindings(sample model.TelemetrySample) []model.AnomalyResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	var findings []model.AnomalyResult
	for _, key := range baselineChannels {
		v, ok := sample.Get(key)
		if !ok {
			continue
		}
		hist := p.history[key]
		if len(hist) >= baselineMinObservations {
			mean, std := stat.MeanStdDev(hist, nil)
			if std > 0 {
				z := math.Abs((v - mean) / std)
				if z > zScoreWarningThreshold {
					sev := model.SeverityWarning
					if z > zScoreHighThreshold {
						sev = model.SeverityHigh
					}
					findings = append(findings, model.AnomalyResult{
						Detected:          true,
						Type:              "SENSOR_DRIFT",
						Severity:          sev,
						Confidence:        0.7,
						RecommendedAction: fmt.Sprintf("Investigate %s drift against baseline", key),
						Evidence:          []string{fmt.Sprintf("%s z-score %.1f over %d-sample baseline", key, z, len(hist))},
						LeadTimeSeconds:   anomalyLeadTimeSeconds,
					})
				}
			}
		}
		hist = append(hist, v)
		if len(hist) > baselineWindow {
			hist = hist[len(hist)-baselineWindow:]
		}
		p.history[key] = hist
	}
	return findings
}
