package metrics

import (
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// CycleResult represents a completed inference cycle to be recorded.
type CycleResult struct {
	CycleID       string
	VehicleID     string
	Phase         model.RacePhase
	Severity      model.Severity
	Primary       model.ActionKind
	AlertCount    int
	Fallback      bool
	InferenceTime time.Duration
	Time          time.Time
}

// MetricsSink records inference cycle results for observability purposes.
type MetricsSink interface {
	RecordCycleResult(res CycleResult) error
}

// PredictorRun captures a single model execution inside a cycle.
type PredictorRun struct {
	CycleID   string
	Predictor model.PredictorID
	Latency   time.Duration
	Succeeded bool
	Error     string
	Time      time.Time
}

// PredictorRunRecorder is implemented by sinks able to record per-model runs.
type PredictorRunRecorder interface {
	RecordPredictorRuns(runs []PredictorRun) error
}

// ActionEvent captures a cascade action emitted with a decision.
type ActionEvent struct {
	CycleID  string
	Action   model.ActionKind
	Severity model.Severity
	Reason   string
	Time     time.Time
}

// ActionRecorder records cascade actions.
type ActionRecorder interface {
	RecordAction(ev ActionEvent) error
}

// AdvisoryAckEvent captures the crew acknowledgment for a critical advisory.
type AdvisoryAckEvent struct {
	CycleID      string
	Severity     model.Severity
	Acknowledged bool
	Latency      time.Duration
	Error        string
	Time         time.Time
}

// AckRecorder records crew acknowledgment events.
type AckRecorder interface {
	RecordAdvisoryAck(ev AdvisoryAckEvent) error
}

// FallbackEvent records a cycle degraded to the static fallback advisory.
type FallbackEvent struct {
	CycleID string
	Reason  string
	Time    time.Time
}

// FallbackRecorder records fallback advisories.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// TelemetryEvent is a snapshot of the telemetry feeding a cycle.
type TelemetryEvent struct {
	VehicleID string
	Sample    model.TelemetrySample
	Component string
	Time      time.Time
}

// TelemetryRecorder records raw telemetry snapshots.
type TelemetryRecorder interface {
	RecordTelemetry(ev TelemetryEvent) error
}

// RaceContextEvent is a snapshot of the tracked race state.
type RaceContextEvent struct {
	Context   model.RaceContext
	Component string
	Time      time.Time
}

// RaceContextRecorder records race context snapshots.
type RaceContextRecorder interface {
	RecordRaceContext(ev RaceContextEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordCycleResult(CycleResult) error { return nil }

func (NopSink) RecordPredictorRuns([]PredictorRun) error { return nil }
func (NopSink) RecordAction(ActionEvent) error           { return nil }
func (NopSink) RecordAdvisoryAck(AdvisoryAckEvent) error { return nil }
func (NopSink) RecordFallback(FallbackEvent) error       { return nil }
func (NopSink) RecordTelemetry(TelemetryEvent) error     { return nil }
func (NopSink) RecordRaceContext(RaceContextEvent) error { return nil }
