package advisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/logger"
	"github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/core/monitoring"
)

// ScheduleReport describes what one scheduler pass actually did: which
// predictors ran, which were cut by the budget, and how long each took.
type ScheduleReport struct {
	Executed  []model.PredictorID
	Skipped   []model.PredictorID
	Failed    []model.PredictorID
	Runs      []metrics.PredictorRun
	Elapsed   time.Duration
	BudgetHit bool
}

// Scheduler invokes predictors sequentially in their registration order
// under a cooperative wall-clock budget. The budget is checked before each
// call only: a predictor that overruns is never interrupted, it just eats
// the remaining budget of the predictors behind it.
type Scheduler struct {
	predictors []Predictor
	budget     time.Duration
	log        logger.Logger

	mu       sync.RWMutex
	disabled map[model.PredictorID]bool
}

// NewScheduler builds a scheduler over the given predictors. The order of
// the slice is the execution priority and is never reordered. The budget is
// taken literally: a zero budget runs nothing and reports every predictor
// skipped. Zero-means-default lives in Config.SetDefaults, not here.
func NewScheduler(predictors []Predictor, budget time.Duration, log logger.Logger) (*Scheduler, error) {
	if len(predictors) == 0 {
		return nil, fmt.Errorf("advisor: nil parameter provided to NewScheduler")
	}
	if log == nil {
		return nil, fmt.Errorf("advisor: nil parameter provided to NewScheduler")
	}
	return &Scheduler{
		predictors: predictors,
		budget:     budget,
		log:        log,
		disabled:   make(map[model.PredictorID]bool),
	}, nil
}

// Budget returns the configured wall-clock budget.
func (s *Scheduler) Budget() time.Duration { return s.budget }

// SetActive toggles a predictor at runtime. Deactivated predictors are
// absent from both the result set and the executed list; they do not keep
// a hole in the priority order.
func (s *Scheduler) SetActive(id model.PredictorID, active bool) {
	s.mu.Lock()
	s.disabled[id] = !active
	s.mu.Unlock()
}

// Active reports whether the predictor is currently enabled.
func (s *Scheduler) Active(id model.PredictorID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.disabled[id]
}

// Predictors lists the registered predictor identifiers in priority order.
func (s *Scheduler) Predictors() []model.PredictorID {
	out := make([]model.PredictorID, len(s.predictors))
	for i, p := range s.predictors {
		out[i] = p.ID()
	}
	return out
}

// Run executes the predictor chain against the sample. It stops early when
// the budget or the context expires; everything not yet started lands in
// the skipped list. A failing predictor is logged, reported to the monitor
// and omitted from the result set, never propagated.
func (s *Scheduler) Run(ctx context.Context, sample model.TelemetrySample) (model.ResultSet, ScheduleReport) {
	start := time.Now()
	results := make(model.ResultSet, len(s.predictors))
	report := ScheduleReport{}

	cut := false
	for i, p := range s.predictors {
		id := p.ID()
		if !s.Active(id) {
			continue
		}
		if cut {
			report.Skipped = append(report.Skipped, id)
			continue
		}
		if err := ctx.Err(); err != nil {
			cut = true
			report.Skipped = append(report.Skipped, id)
			continue
		}
		if elapsed := time.Since(start); elapsed >= s.budget {
			cut = true
			report.BudgetHit = true
			report.Skipped = append(report.Skipped, id)
			s.log.Warnf("inference budget exhausted after %s, skipping %d predictors from %s",
				elapsed, len(s.predictors)-i, id)
			continue
		}

		callStart := time.Now()
		res, err := s.invoke(p, sample)
		latency := time.Since(callStart)

		run := metrics.PredictorRun{Predictor: id, Latency: latency, Succeeded: err == nil, Time: callStart}
		if err != nil {
			run.Error = err.Error()
			report.Failed = append(report.Failed, id)
			if err != ErrUnavailable {
				s.log.Warnf("predictor %s failed: %v", id, err)
				monitoring.CaptureException(err, map[string]string{"predictor": string(id)})
			} else {
				s.log.Debugf("predictor %s unavailable", id)
			}
		} else if res != nil {
			results[id] = res
			report.Executed = append(report.Executed, id)
		}
		report.Runs = append(report.Runs, run)
	}

	report.Elapsed = time.Since(start)
	return results, report
}

// invoke shields the cycle from a panicking predictor.
func (s *Scheduler) invoke(p Predictor, sample model.TelemetrySample) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("predictor %s panicked: %v", p.ID(), r)
		}
	}()
	return p.Predict(sample)
}
