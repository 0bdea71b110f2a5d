package events

import "github.com/aryanzkys/apatte-pitbox/core/model"

// AnomalyEvent is emitted when a cycle surfaces an anomaly prediction.
type AnomalyEvent struct {
	CycleID         string
	Type            string
	Severity        model.Severity
	LeadTimeSeconds float64
}
