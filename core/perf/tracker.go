// Package perf tracks advisory cycle latency with an exponentially
// weighted moving average so the statistics surface can report smoothed
// figures without retaining raw samples.
package perf

import (
	"sync"
	"time"
)

// DefaultAlpha is the EWMA smoothing factor: recent cycles weigh about a
// tenth of the running average.
const DefaultAlpha = 0.1

// Stats is a snapshot of the tracked latency figures.
type Stats struct {
	Cycles    uint64        `json:"cycles"`
	EWMA      time.Duration `json:"ewma"`
	Last      time.Duration `json:"last"`
	Max       time.Duration `json:"max"`
	Min       time.Duration `json:"min"`
	EWMAMs    float64       `json:"ewma_ms"`
	BudgetHit uint64        `json:"budget_overruns"`
}

// Tracker keeps the moving latency figures. Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	alpha  float64
	stats  Stats
	budget time.Duration
}

// NewTracker builds a tracker. Alpha outside (0,1] falls back to the
// default; a zero budget disables overrun counting.
func NewTracker(alpha float64, budget time.Duration) *Tracker {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &Tracker{alpha: alpha, budget: budget}
}

// Observe folds one cycle duration into the moving figures.
func (t *Tracker) Observe(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Cycles++
	t.stats.Last = d
	if t.stats.Cycles == 1 {
		t.stats.EWMA = d
		t.stats.Max = d
		t.stats.Min = d
	} else {
		t.stats.EWMA = time.Duration(t.alpha*float64(d) + (1-t.alpha)*float64(t.stats.EWMA))
		if d > t.stats.Max {
			t.stats.Max = d
		}
		if d < t.stats.Min {
			t.stats.Min = d
		}
	}
	if t.budget > 0 && d > t.budget {
		t.stats.BudgetHit++
	}
	t.stats.EWMAMs = float64(t.stats.EWMA.Microseconds()) / 1000
}

// Snapshot returns the current figures.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Reset drops all figures.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.stats = Stats{}
	t.mu.Unlock()
}
