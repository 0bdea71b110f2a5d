package scenarios

import (
	"context"
	"testing"

	"github.com/aryanzkys/apatte-pitbox/core/advisor"
	"github.com/aryanzkys/apatte-pitbox/core/history"
	"github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/core/predict"
	"github.com/aryanzkys/apatte-pitbox/core/racectx"
	"github.com/aryanzkys/apatte-pitbox/infra/logger"
	"github.com/aryanzkys/apatte-pitbox/internal/eventbus"
)

// RunScenario plays every frame through a real engine and checks the
// decision produced by the last one.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	if len(sc.Frames) == 0 {
		t.Fatalf("scenario %s has no frames", sc.Name)
	}

	log := logger.NopLogger{}
	tracker, err := racectx.New(racectx.Config{TotalLaps: sc.Context.TotalLaps}, log)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	if sc.Context.Lap > 0 {
		tracker.SetLap(sc.Context.Lap)
	}
	if sc.Context.Rank > 0 {
		tracker.SetRank(sc.Context.Rank, 1)
	}

	sched, err := advisor.NewScheduler(predict.DefaultChain(), advisor.DefaultBudget, log)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	ring := history.NewRing(len(sc.Frames))
	engine, err := advisor.NewEngine("qa", sched, advisor.NewPriorityCascade(), tracker, ring, metrics.NopSink{}, eventbus.New(), log, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	var decision model.Decision
	for _, frame := range sc.Frames {
		sample := frame.ToSample()
		tracker.UpdateFromTelemetry(sample)
		decision = engine.RunCycle(context.Background(), sample)
	}

	checkExpected(t, sc, decision)
}

func checkExpected(t *testing.T, sc *Scenario, d model.Decision) {
	t.Helper()
	exp := sc.Expected

	if exp.Primary != "" {
		var want model.ActionKind
		if err := want.UnmarshalText([]byte(exp.Primary)); err != nil {
			t.Fatalf("scenario %s: bad expected primary: %v", sc.Name, err)
		}
		if d.Primary.Kind != want {
			t.Errorf("scenario %s: primary %s, want %s", sc.Name, d.Primary.Kind, want)
		}
	}
	if exp.Severity != "" {
		var want model.Severity
		if err := want.UnmarshalText([]byte(exp.Severity)); err != nil {
			t.Fatalf("scenario %s: bad expected severity: %v", sc.Name, err)
		}
		if d.Severity != want {
			t.Errorf("scenario %s: severity %s, want %s", sc.Name, d.Severity, want)
		}
	}
	if d.Fallback != exp.Fallback {
		t.Errorf("scenario %s: fallback %v, want %v", sc.Name, d.Fallback, exp.Fallback)
	}
	if d.AlertCount < exp.MinAlerts {
		t.Errorf("scenario %s: %d alerts, want at least %d", sc.Name, d.AlertCount, exp.MinAlerts)
	}
	if exp.Reason != "" && d.Reason != exp.Reason {
		t.Errorf("scenario %s: reason %q, want %q", sc.Name, d.Reason, exp.Reason)
	}
}
