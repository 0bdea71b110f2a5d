package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/events"
	"github.com/aryanzkys/apatte-pitbox/core/logger"
	"github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/core/model"
	"github.com/aryanzkys/apatte-pitbox/core/monitoring"
	coremqtt "github.com/aryanzkys/apatte-pitbox/core/mqtt"
	"github.com/aryanzkys/apatte-pitbox/internal/eventbus"
)

// AdvisoryDispatcher bridges the event bus to the advisory publisher:
// every fused decision is pushed to the crew, and critical ones are
// tracked until acknowledged or escalated.
type AdvisoryDispatcher struct {
	pub        coremqtt.AdvisoryPublisher
	bus        eventbus.EventBus
	sink       metrics.MetricsSink
	ackTimeout time.Duration
	log        logger.Logger
}

// NewAdvisoryDispatcher wires the dispatcher. A zero ackTimeout defaults
// to ten seconds.
func NewAdvisoryDispatcher(pub coremqtt.AdvisoryPublisher, bus eventbus.EventBus, sink metrics.MetricsSink, ackTimeout time.Duration, log logger.Logger) (*AdvisoryDispatcher, error) {
	if pub == nil || bus == nil || sink == nil || log == nil {
		return nil, fmt.Errorf("mqtt: nil parameter provided to NewAdvisoryDispatcher")
	}
	if ackTimeout <= 0 {
		ackTimeout = 10 * time.Second
	}
	return &AdvisoryDispatcher{
		pub:        pub,
		bus:        bus,
		sink:       sink,
		ackTimeout: ackTimeout,
		log:        log,
	}, nil
}

// Start consumes decision events until the context ends.
func (d *AdvisoryDispatcher) Start(ctx context.Context) {
	sub := d.bus.Subscribe()
	go func() {
		defer monitoring.Recover()
		defer d.bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if de, isDecision := ev.(events.DecisionEvent); isDecision {
					d.dispatch(de.Decision)
				}
			}
		}
	}()
}

// Dispatch publishes one decision synchronously. Exposed for callers that
// drive cycles directly instead of through the bus.
func (d *AdvisoryDispatcher) Dispatch(decision model.Decision) error {
	return d.publish(decision)
}

func (d *AdvisoryDispatcher) dispatch(decision model.Decision) {
	if err := d.publish(decision); err != nil {
		d.log.Errorf("failed to publish advice for cycle %s: %v", decision.CycleID, err)
	}
}

func (d *AdvisoryDispatcher) publish(decision model.Decision) error {
	if err := d.pub.PublishDecision(decision); err != nil {
		return err
	}
	if decision.IsCritical() {
		go d.trackAck(decision)
	}
	return nil
}

// trackAck waits for the crew acknowledgment of a critical advisory and
// escalates when it never arrives.
func (d *AdvisoryDispatcher) trackAck(decision model.Decision) {
	defer monitoring.Recover()
	start := time.Now()
	ok, err := d.pub.WaitForAck(decision.CycleID, d.ackTimeout)
	waited := time.Since(start)

	ack := events.AckEvent{
		CycleID:      decision.CycleID,
		Severity:     decision.Severity,
		Acknowledged: ok,
		Err:          err,
		Latency:      waited,
	}
	d.bus.Publish(ack)

	if rec, isRec := d.sink.(metrics.AckRecorder); isRec {
		ev := metrics.AdvisoryAckEvent{
			CycleID:      decision.CycleID,
			Severity:     decision.Severity,
			Acknowledged: ok,
			Latency:      waited,
			Time:         time.Now(),
		}
		if err != nil {
			ev.Error = err.Error()
		}
		if recErr := rec.RecordAdvisoryAck(ev); recErr != nil {
			d.log.Warnf("failed to record ack: %v", recErr)
		}
	}

	if !ok {
		d.log.Warnf("critical advice for cycle %s unacknowledged after %s, escalating", decision.CycleID, waited)
		d.bus.Publish(events.EscalationEvent{
			CycleID:  decision.CycleID,
			Severity: decision.Severity,
			Waited:   waited,
		})
	}
}
