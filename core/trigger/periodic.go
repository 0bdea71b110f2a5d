// Package trigger drives advisory cycles on a fixed cadence independent
// of telemetry arrival.
package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/logger"
	"github.com/aryanzkys/apatte-pitbox/core/monitoring"
)

// DefaultInterval is the stock advisory cadence.
const DefaultInterval = 5 * time.Second

// Func is invoked on every tick.
type Func func(ctx context.Context)

// Periodic fires a function at a fixed interval until the context ends.
type Periodic struct {
	interval time.Duration
	fn       Func
	log      logger.Logger
}

// NewPeriodic builds a trigger. A non-positive interval falls back to the
// default cadence.
func NewPeriodic(interval time.Duration, fn Func, log logger.Logger) (*Periodic, error) {
	if fn == nil || log == nil {
		return nil, fmt.Errorf("trigger: nil parameter provided to NewPeriodic")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Periodic{interval: interval, fn: fn, log: log}, nil
}

// Interval returns the configured cadence.
func (p *Periodic) Interval() time.Duration { return p.interval }

// Start launches the tick loop in its own goroutine and returns. The loop
// stops when ctx is cancelled.
func (p *Periodic) Start(ctx context.Context) {
	go func() {
		defer monitoring.Recover()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		p.log.Infof("periodic trigger started, interval %s", p.interval)
		for {
			select {
			case <-ctx.Done():
				p.log.Infof("periodic trigger stopped")
				return
			case <-ticker.C:
				p.fn(ctx)
			}
		}
	}()
}
