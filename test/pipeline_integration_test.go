package test

import (
	"context"
	"testing"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/advisor"
	"github.com/aryanzkys/apatte-pitbox/core/events"
	"github.com/aryanzkys/apatte-pitbox/core/history"
	"github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/core/predict"
	"github.com/aryanzkys/apatte-pitbox/core/racectx"
	"github.com/aryanzkys/apatte-pitbox/infra/logger"
	infmqtt "github.com/aryanzkys/apatte-pitbox/infra/mqtt"
	"github.com/aryanzkys/apatte-pitbox/internal/eventbus"
)

type pipeline struct {
	engine  *advisor.Engine
	tracker *racectx.Tracker
	ring    *history.Ring
	bus     eventbus.EventBus
	pub     *infmqtt.MockPublisher
}

func newPipeline(t *testing.T, ackTimeout time.Duration) *pipeline {
	t.Helper()
	log := logger.NopLogger{}
	tracker, err := racectx.New(racectx.Config{TotalLaps: 10}, log)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	sched, err := advisor.NewScheduler(predict.DefaultChain(), advisor.DefaultBudget, log)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	ring := history.NewRing(16)
	bus := eventbus.New()
	engine, err := advisor.NewEngine("it-car", sched, advisor.NewPriorityCascade(), tracker, ring, metrics.NopSink{}, bus, log, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	pub := infmqtt.NewMockPublisher()
	disp, err := infmqtt.NewAdvisoryDispatcher(pub, bus, metrics.NopSink{}, ackTimeout, log)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	disp.Start(ctx)
	return &pipeline{engine: engine, tracker: tracker, ring: ring, bus: bus, pub: pub}
}

func criticalSample() model.TelemetrySample {
	return model.TelemetrySample{
		model.KeySocCurrent: 70,
		model.KeySpeedAvg:   30,
		model.KeyMotorTemp:  110,
		model.KeyLapCurrent: 3,
		model.KeyTotalLaps:  10,
	}
}

func waitForEvent[T any](t *testing.T, sub <-chan eventbus.Event, timeout time.Duration) T {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				t.Fatal("bus closed before event arrived")
			}
			if typed, is := ev.(T); is {
				return typed
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
		}
	}
}

func TestCriticalAdviceReachesCrewAndIsAcked(t *testing.T) {
	p := newPipeline(t, time.Second)
	sub := p.bus.Subscribe()
	defer p.bus.Unsubscribe(sub)

	p.tracker.UpdateFromTelemetry(criticalSample())
	decision := p.engine.RunCycle(context.Background(), criticalSample())

	if decision.Severity < model.SeverityCritical {
		t.Fatalf("expected critical severity, got %s", decision.Severity)
	}
	if decision.Reason != "SAFETY OVERRIDE" {
		t.Fatalf("expected safety override, got %q", decision.Reason)
	}

	ack := waitForEvent[events.AckEvent](t, sub, 2*time.Second)
	if !ack.Acknowledged {
		t.Fatalf("expected acknowledged advice, got %+v", ack)
	}
	if ack.CycleID != decision.CycleID {
		t.Fatalf("ack for cycle %s, want %s", ack.CycleID, decision.CycleID)
	}

	published := p.pub.Decisions()
	if len(published) != 1 || published[0].CycleID != decision.CycleID {
		t.Fatalf("decision not published: %+v", published)
	}
}

func TestUnackedCriticalAdviceEscalates(t *testing.T) {
	p := newPipeline(t, 100*time.Millisecond)
	sub := p.bus.Subscribe()
	defer p.bus.Unsubscribe(sub)

	p.pub.AckResults["cycle-esc"] = false
	decision := model.Decision{
		CycleID:  "cycle-esc",
		Severity: model.SeverityCritical,
		Primary:  model.CascadeAction{Kind: model.ActionAnomalyDetected, Severity: model.SeverityCritical},
	}
	disp, err := infmqtt.NewAdvisoryDispatcher(p.pub, p.bus, metrics.NopSink{}, 100*time.Millisecond, logger.NopLogger{})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	if err := disp.Dispatch(decision); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	esc := waitForEvent[events.EscalationEvent](t, sub, 2*time.Second)
	if esc.CycleID != "cycle-esc" {
		t.Fatalf("escalation for cycle %s", esc.CycleID)
	}
}

func TestIncompleteTelemetryRaisesFallbackEvent(t *testing.T) {
	p := newPipeline(t, time.Second)
	sub := p.bus.Subscribe()
	defer p.bus.Unsubscribe(sub)

	decision := p.engine.RunCycle(context.Background(), model.TelemetrySample{
		model.KeySocCurrent: 60,
		model.KeySpeedAvg:   28,
	})
	if !decision.Fallback {
		t.Fatal("expected fallback decision")
	}

	fb := waitForEvent[events.FallbackEvent](t, sub, 2*time.Second)
	if fb.CycleID != decision.CycleID {
		t.Fatalf("fallback event for cycle %s, want %s", fb.CycleID, decision.CycleID)
	}
	if len(fb.Missing) == 0 {
		t.Fatal("fallback event must name the missing channels")
	}

	if got := p.ring.Len(); got != 1 {
		t.Fatalf("fallback decision must be retained, ring len %d", got)
	}
}

func TestQuietCycleIsNotTracked(t *testing.T) {
	p := newPipeline(t, time.Second)

	sample := model.TelemetrySample{
		model.KeySocCurrent:  80,
		model.KeySpeedAvg:    30,
		model.KeyMotorTemp:   55,
		model.KeyThrottlePct: 37,
		model.KeyLapCurrent:  2,
		model.KeyTotalLaps:   10,
	}
	p.tracker.UpdateFromTelemetry(sample)
	decision := p.engine.RunCycle(context.Background(), sample)

	if decision.Severity != model.SeverityNormal {
		t.Fatalf("expected normal severity, got %s", decision.Severity)
	}
	if decision.Primary.Kind != model.ActionNormalOperation {
		t.Fatalf("expected normal operation, got %s", decision.Primary.Kind)
	}

	// only critical advice waits for a crew ack
	time.Sleep(50 * time.Millisecond)
	if got := len(p.pub.Decisions()); got != 1 {
		t.Fatalf("decision must still be published, got %d", got)
	}
}
