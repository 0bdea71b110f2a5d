package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryanzkys/apatte-pitbox/core/events"
	"github.com/aryanzkys/apatte-pitbox/core/logger"
	"github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/internal/eventbus"
)

// LatencyObserver receives the wall-clock duration of each completed cycle.
type LatencyObserver interface {
	Observe(d time.Duration)
}

// Engine runs full advisory cycles: telemetry validation, the scheduled
// predictor chain, cascade fusion, then stamping, retention and fan-out.
type Engine struct {
	vehicleID string
	scheduler *Scheduler
	cascade   *PriorityCascade
	tracker   ContextTracker
	store     DecisionStore
	sink      metrics.MetricsSink
	bus       eventbus.EventBus
	log       logger.Logger
	perf      LatencyObserver
}

// NewEngine wires the cycle pipeline. All parameters except perf are
// mandatory; pass metrics.NopSink to discard observability output.
func NewEngine(
	vehicleID string,
	scheduler *Scheduler,
	cascade *PriorityCascade,
	tracker ContextTracker,
	store DecisionStore,
	sink metrics.MetricsSink,
	bus eventbus.EventBus,
	log logger.Logger,
	perf LatencyObserver,
) (*Engine, error) {
	if scheduler == nil || cascade == nil || tracker == nil || store == nil ||
		sink == nil || bus == nil || log == nil {
		return nil, fmt.Errorf("advisor: nil parameter provided to NewEngine")
	}
	return &Engine{
		vehicleID: vehicleID,
		scheduler: scheduler,
		cascade:   cascade,
		tracker:   tracker,
		store:     store,
		sink:      sink,
		bus:       bus,
		log:       log,
		perf:      perf,
	}, nil
}

// Scheduler exposes the underlying scheduler for runtime model toggling.
func (e *Engine) Scheduler() *Scheduler { return e.scheduler }

// RunCycle executes one advisory cycle over the sample and returns the
// fused decision. Every call returns a decision: when the sample lacks the
// minimum channels the cycle degrades to the fixed fallback advisory
// instead of failing.
func (e *Engine) RunCycle(ctx context.Context, sample model.TelemetrySample) model.Decision {
	start := time.Now()
	cycleID := uuid.NewString()

	if missing := sample.MissingMinimum(); len(missing) > 0 {
		return e.fallback(cycleID, missing, start)
	}

	rctx := e.tracker.Snapshot()
	results, report := e.scheduler.Run(ctx, sample)
	decision := e.cascade.Fuse(results, rctx)

	decision.CycleID = cycleID
	decision.VehicleID = e.vehicleID
	decision.Timestamp = time.Now().UTC()
	decision.Phase = rctx.Phase
	decision.Lap = rctx.CurrentLap
	decision.ModelsExecuted = idStrings(report.Executed)
	decision.ModelsSkipped = idStrings(report.Skipped)
	decision.InferenceMillis = float64(report.Elapsed.Microseconds()) / 1000

	e.finish(decision, report, start)
	return decision
}

// fallback produces the degraded advisory for an unusable sample.
func (e *Engine) fallback(cycleID string, missing []string, start time.Time) model.Decision {
	reason := fmt.Sprintf("telemetry incomplete: missing %s", strings.Join(missing, ", "))
	e.log.Warnf("cycle %s degraded to fallback: %s", cycleID, reason)

	action := model.CascadeAction{
		Kind:            model.ActionFallbackAdvisory,
		Severity:        model.SeverityHigh,
		Reason:          reason,
		Recommendations: model.FallbackRecommendations,
	}
	decision := model.Decision{
		CycleID:         cycleID,
		VehicleID:       e.vehicleID,
		Timestamp:       time.Now().UTC(),
		Primary:         action,
		Actions:         []model.CascadeAction{action},
		Severity:        model.SeverityHigh,
		Reason:          reason,
		AlertCount:      1,
		ModelsExecuted:  []string{},
		InferenceMillis: float64(time.Since(start).Microseconds()) / 1000,
		Fallback:        true,
	}
	rctx := e.tracker.Snapshot()
	decision.Phase = rctx.Phase
	decision.Lap = rctx.CurrentLap

	e.bus.Publish(events.FallbackEvent{CycleID: cycleID, Reason: reason, Missing: missing})
	if rec, ok := e.sink.(metrics.FallbackRecorder); ok {
		if err := rec.RecordFallback(metrics.FallbackEvent{CycleID: cycleID, Reason: reason, Time: time.Now()}); err != nil {
			e.log.Warnf("failed to record fallback: %v", err)
		}
	}
	e.finish(decision, ScheduleReport{}, start)
	return decision
}

// finish retains, records and publishes a stamped decision.
func (e *Engine) finish(decision model.Decision, report ScheduleReport, start time.Time) {
	e.store.Add(decision)

	res := metrics.CycleResult{
		CycleID:       decision.CycleID,
		VehicleID:     decision.VehicleID,
		Phase:         decision.Phase,
		Severity:      decision.Severity,
		Primary:       decision.Primary.Kind,
		AlertCount:    decision.AlertCount,
		Fallback:      decision.Fallback,
		InferenceTime: report.Elapsed,
		Time:          decision.Timestamp,
	}
	if err := e.sink.RecordCycleResult(res); err != nil {
		e.log.Warnf("failed to record cycle result: %v", err)
	}
	if rec, ok := e.sink.(metrics.PredictorRunRecorder); ok && len(report.Runs) > 0 {
		runs := make([]metrics.PredictorRun, len(report.Runs))
		for i, r := range report.Runs {
			r.CycleID = decision.CycleID
			runs[i] = r
		}
		if err := rec.RecordPredictorRuns(runs); err != nil {
			e.log.Warnf("failed to record predictor runs: %v", err)
		}
	}
	if rec, ok := e.sink.(metrics.ActionRecorder); ok {
		for _, a := range decision.Actions {
			ev := metrics.ActionEvent{
				CycleID:  decision.CycleID,
				Action:   a.Kind,
				Severity: a.Severity,
				Reason:   a.Reason,
				Time:     decision.Timestamp,
			}
			if err := rec.RecordAction(ev); err != nil {
				e.log.Warnf("failed to record action: %v", err)
			}
		}
	}

	if e.perf != nil {
		e.perf.Observe(time.Since(start))
	}

	e.bus.Publish(events.DecisionEvent{Decision: decision})
	e.log.Debugw("cycle complete", map[string]any{
		"cycle_id":     decision.CycleID,
		"severity":     decision.Severity.String(),
		"primary":      decision.Primary.Kind.String(),
		"alerts":       decision.AlertCount,
		"inference_ms": decision.InferenceMillis,
		"fallback":     decision.Fallback,
	})
}

func idStrings(ids []model.PredictorID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
