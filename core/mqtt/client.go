package mqtt

import (
	"time"

	"github.com/aryanzkys/apatte-pitbox/core/model"
)

// AdvisoryPublisher delivers fused decisions to the pit crew surface and
// tracks crew acknowledgments for the critical ones.
type AdvisoryPublisher interface {
	// PublishDecision pushes the decision to the advice topic. Delivery
	// guarantees scale with severity.
	PublishDecision(d model.Decision) error

	// WaitForAck blocks until the crew acknowledges the given cycle or the
	// timeout expires.
	WaitForAck(cycleID string, timeout time.Duration) (bool, error)
}
