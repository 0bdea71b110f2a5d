package model

// PredictorID identifies one of the advisory predictors.
type PredictorID string

const (
	PredictorAnomaly    PredictorID = "anomaly"
	PredictorFatigue    PredictorID = "fatigue"
	PredictorEnergy     PredictorID = "energy"
	PredictorH2Purge    PredictorID = "h2_purge"
	PredictorRacingLine PredictorID = "racing_line"
	PredictorSlipCoast  PredictorID = "slip_coast"
	PredictorEfficiency PredictorID = "efficiency"
	PredictorRank       PredictorID = "rank"
)

// PriorityOrder is the fixed execution order of the predictors: safety
// first, driver health, energy, vehicle health, then performance and
// strategy. Schedulers must not reorder it.
var PriorityOrder = []PredictorID{
	PredictorAnomaly,
	PredictorFatigue,
	PredictorEnergy,
	PredictorH2Purge,
	PredictorRacingLine,
	PredictorSlipCoast,
	PredictorEfficiency,
	PredictorRank,
}

// EnergyResult is the energy predictor output: projected charge at the
// finish line and the margin over the 5% reserve.
type EnergyResult struct {
	PredictedFinalSoC float64 `json:"predicted_final_soc"`
	WillFinish        bool    `json:"will_finish"`
	Margin            float64 `json:"margin"`
	EnergyPerLapKWh   float64 `json:"energy_per_lap_kwh,omitempty"`
	Confidence        float64 `json:"confidence"`
	Method            string  `json:"method,omitempty"`
}

// AnomalyResult reports the most significant detected anomaly, if any.
type AnomalyResult struct {
	Detected          bool     `json:"anomaly_detected"`
	Type              string   `json:"anomaly_type"`
	Severity          Severity `json:"severity"`
	Confidence        float64  `json:"confidence"`
	RecommendedAction string   `json:"action_recommend"`
	Evidence          []string `json:"evidence,omitempty"`
	LeadTimeSeconds   float64  `json:"lead_time_estimate_seconds"`
}

// MedicalAlert is a vitals breach raised by the fatigue predictor.
type MedicalAlert struct {
	Severity Severity `json:"severity"`
	Alert    string   `json:"alert"` // HYPOXIA_RISK, HIGH_HR
	Value    float64  `json:"value"`
	Action   string   `json:"action"`
}

// FatigueResult grades driver fatigue on levels 0-3 with the component
// contributions that produced the score.
type FatigueResult struct {
	Level         int                `json:"fatigue_level"`
	Pct           float64            `json:"fatigue_pct"`
	Action        string             `json:"action"`
	Confidence    float64            `json:"confidence"`
	MedicalAlerts []MedicalAlert     `json:"medical_alerts,omitempty"`
	Contributions map[string]float64 `json:"contributions,omitempty"`
}

// PurgeResult is the hydrogen purge scheduler output.
type PurgeResult struct {
	Recommend       string   `json:"purge_recommend"` // EMERGENCY_PURGE, PURGE_NOW, PURGE_CONSIDER, PURGE_RECOMMENDED, WAIT
	DurationSeconds int      `json:"optimal_duration"`
	LELCurrent      float64  `json:"lel_current"`
	AdjustedLEL     float64  `json:"adjusted_lel"`
	TimeToCritical  float64  `json:"time_to_critical_minutes"`
	Confidence      float64  `json:"confidence"`
	Severity        Severity `json:"severity"`
	Reason          string   `json:"reason"`
}

// RacingLineResult measures deviation from the reference trajectory.
type RacingLineResult struct {
	DeviationMeters float64 `json:"deviation_meters"`
	SpeedDeviation  float64 `json:"speed_deviation"`
	SectorTimeDiff  float64 `json:"sector_time_diff"`
	Recommendation  string  `json:"recommendation"`
	Confidence      float64 `json:"confidence"`
	NearestWaypoint int     `json:"nearest_waypoint_idx"`
	ProgressPct     float64 `json:"progress_pct"`
}

// TirePressureAdvice is the slip predictor's pressure adjustment.
type TirePressureAdvice struct {
	CurrentBar     float64 `json:"current_pressure"`
	RecommendedBar float64 `json:"recommended_pressure"`
	Delta          float64 `json:"delta"`
	Reason         string  `json:"reason"`
}

// SlipCoastResult combines wheel slip detection with coasting advice.
type SlipCoastResult struct {
	OptimalCoastRatio float64            `json:"optimal_coast_ratio"`
	SlipDetected      bool               `json:"slip_detected"`
	SlipSeverity      string             `json:"slip_severity"` // NONE, LOW, MEDIUM, HIGH
	TirePressure      TirePressureAdvice `json:"tire_pressure_adjust"`
	RegenPotentialW   float64            `json:"regen_potential"`
	Recommendation    string             `json:"recommendation"`
	Confidence        float64            `json:"confidence"`
}

// EfficiencyResult is the throttle-map optimizer output.
type EfficiencyResult struct {
	OptimalThrottlePct float64 `json:"optimal_throttle_pct"`
	CurrentThrottlePct float64 `json:"current_throttle"`
	EfficiencyGain     float64 `json:"efficiency_gain"`
	Zone               string  `json:"zone_color"` // GREEN, YELLOW, RED
	Recommendation     string  `json:"recommendation"`
	Confidence         float64 `json:"confidence"`
}

// RankResult estimates finishing position against the fleet.
type RankResult struct {
	PodiumProbability float64  `json:"podium_probability"`
	ExpectedRank      float64  `json:"expected_rank"`
	RankCILower       float64  `json:"rank_ci_lower"`
	RankCIUpper       float64  `json:"rank_ci_upper"`
	ProbBeatAverage   float64  `json:"probability_beat_avg_competitor"`
	StrategyType      string   `json:"strategy_type"` // AGGRESSIVE, BALANCED, CONSERVATIVE, SURVIVAL
	Recommendation    string   `json:"recommendation"`
	Actions           []string `json:"actions,omitempty"`
	Confidence        float64  `json:"confidence"`
}

// ResultSet collects predictor outputs for one cycle. A predictor that was
// skipped or failed is simply absent.
type ResultSet map[PredictorID]any

// Energy returns the energy result when present.
func (r ResultSet) Energy() (EnergyResult, bool) {
	v, ok := r[PredictorEnergy].(EnergyResult)
	return v, ok
}

// Anomaly returns the anomaly result when present.
func (r ResultSet) Anomaly() (AnomalyResult, bool) {
	v, ok := r[PredictorAnomaly].(AnomalyResult)
	return v, ok
}

// Fatigue returns the fatigue result when present.
func (r ResultSet) Fatigue() (FatigueResult, bool) {
	v, ok := r[PredictorFatigue].(FatigueResult)
	return v, ok
}

// Purge returns the hydrogen purge result when present.
func (r ResultSet) Purge() (PurgeResult, bool) {
	v, ok := r[PredictorH2Purge].(PurgeResult)
	return v, ok
}

// RacingLine returns the racing line result when present.
func (r ResultSet) RacingLine() (RacingLineResult, bool) {
	v, ok := r[PredictorRacingLine].(RacingLineResult)
	return v, ok
}

// SlipCoast returns the slip and coast result when present.
func (r ResultSet) SlipCoast() (SlipCoastResult, bool) {
	v, ok := r[PredictorSlipCoast].(SlipCoastResult)
	return v, ok
}

// Efficiency returns the efficiency result when present.
func (r ResultSet) Efficiency() (EfficiencyResult, bool) {
	v, ok := r[PredictorEfficiency].(EfficiencyResult)
	return v, ok
}

// Rank returns the rank result when present.
func (r ResultSet) Rank() (RankResult, bool) {
	v, ok := r[PredictorRank].(RankResult)
	return v, ok
}

// Executed lists the predictors present in the set, in priority order.
func (r ResultSet) Executed() []string {
	out := make([]string, 0, len(r))
	for _, id := range PriorityOrder {
		if _, ok := r[id]; ok {
			out = append(out, string(id))
		}
	}
	return out
}
