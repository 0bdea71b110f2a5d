package events

import (
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// AckEvent is published for each crew acknowledgment or error.
type AckEvent struct {
	CycleID      string
	Severity     model.Severity
	Acknowledged bool
	Err          error
	Latency      time.Duration
}

// EscalationEvent is emitted when a critical advisory receives no crew
// acknowledgment before the timeout expires.
type EscalationEvent struct {
	CycleID  string
	Severity model.Severity
	Waited   time.Duration
}
