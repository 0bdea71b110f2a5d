// Package predict implements the advisory predictors: rule and physics
// based opinion sources over the flat telemetry sample. Each predictor is
// independent; the scheduler decides which ones run in a given cycle.
package predict
