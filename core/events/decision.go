package events

import "github.com/aryanzkys/apatte-pitbox/core/model"

// DecisionEvent is published when an inference cycle completes.
type DecisionEvent struct {
	Decision model.Decision
}

// FallbackEvent is emitted when a cycle cannot run the model chain and
// degrades to the static fallback advisory.
type FallbackEvent struct {
	CycleID string
	Reason  string
	Missing []string
}
