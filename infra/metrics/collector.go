package metrics

import (
	"context"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/events"
	coremetrics "github.com/aryanzkys/apatte-pitbox/core/metrics"
	"github.com/aryanzkys/apatte-pitbox/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.AckEvent:
					if r, ok := sink.(coremetrics.AckRecorder); ok {
						errStr := ""
						if e.Err != nil {
							errStr = e.Err.Error()
						}
						_ = r.RecordAdvisoryAck(coremetrics.AdvisoryAckEvent{
							CycleID:      e.CycleID,
							Severity:     e.Severity,
							Acknowledged: e.Acknowledged,
							Latency:      e.Latency,
							Error:        errStr,
							Time:         time.Now(),
						})
					}
				case events.EscalationEvent:
					if r, ok := sink.(coremetrics.AckRecorder); ok {
						_ = r.RecordAdvisoryAck(coremetrics.AdvisoryAckEvent{
							CycleID:      e.CycleID,
							Severity:     e.Severity,
							Acknowledged: false,
							Latency:      e.Waited,
							Error:        "ack timeout",
							Time:         time.Now(),
						})
					}
				case events.FallbackEvent:
					if r, ok := sink.(coremetrics.FallbackRecorder); ok {
						_ = r.RecordFallback(coremetrics.FallbackEvent{
							CycleID: e.CycleID,
							Reason:  e.Reason,
							Time:    time.Now(),
						})
					}
				}
			}
		}
	}()
}
