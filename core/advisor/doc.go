// Package advisor contains the advisory cycle pipeline: the budgeted
// predictor scheduler, the three-phase priority cascade and the engine
// that stitches them into one decision per telemetry sample.
package advisor
