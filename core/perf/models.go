package perf

import (
	"sync"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// ModelStats is a snapshot of one predictor's track record.
type ModelStats struct {
	Runs           uint64        `json:"runs"`
	Failures       uint64        `json:"failures"`
	Consecutive    uint64        `json:"consecutive_failures"`
	LastError      string        `json:"last_error,omitempty"`
	Last           time.Duration `json:"last"`
	EWMA           time.Duration `json:"ewma"`
	EWMAMs         float64       `json:"ewma_ms"`
	LastRun        time.Time     `json:"last_run"`
	SuccessRatePct float64       `json:"success_rate_pct"`
}

// ModelTracker keeps per-predictor figures. It records runs through the
// metrics sink capability so it can join a MultiSink next to the real
// observability sinks.
type ModelTracker struct {
	metrics.NopSink

	mu    sync.Mutex
	alpha float64
	stats map[model.PredictorID]*ModelStats
}

// NewModelTracker builds a tracker. Alpha outside (0,1] falls back to
// the default.
func NewModelTracker(alpha float64) *ModelTracker {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &ModelTracker{
		alpha: alpha,
		stats: make(map[model.PredictorID]*ModelStats),
	}
}

// RecordPredictorRuns folds a cycle's runs into the per-model figures.
func (t *ModelTracker) RecordPredictorRuns(runs []metrics.PredictorRun) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, run := range runs {
		s, ok := t.stats[run.Predictor]
		if !ok {
			s = &ModelStats{}
			t.stats[run.Predictor] = s
		}
		s.Runs++
		s.Last = run.Latency
		s.LastRun = run.Time
		if s.Runs == 1 {
			s.EWMA = run.Latency
		} else {
			s.EWMA = time.Duration(t.alpha*float64(run.Latency) + (1-t.alpha)*float64(s.EWMA))
		}
		s.EWMAMs = float64(s.EWMA.Microseconds()) / 1000
		if run.Succeeded {
			s.Consecutive = 0
		} else {
			s.Failures++
			s.Consecutive++
			s.LastError = run.Error
		}
		s.SuccessRatePct = float64(s.Runs-s.Failures) / float64(s.Runs) * 100
	}
	return nil
}

// Snapshot returns a copy of every model's figures.
func (t *ModelTracker) Snapshot() map[model.PredictorID]ModelStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[model.PredictorID]ModelStats, len(t.stats))
	for id, s := range t.stats {
		out[id] = *s
	}
	return out
}

// Stats returns one model's figures.
func (t *ModelTracker) Stats(id model.PredictorID) (ModelStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[id]
	if !ok {
		return ModelStats{}, false
	}
	return *s, true
}

// Reset drops all figures.
func (t *ModelTracker) Reset() {
	t.mu.Lock()
	t.stats = make(map[model.PredictorID]*ModelStats)
	t.mu.Unlock()
}
