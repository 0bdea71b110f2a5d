// Package events defines the advisory related events emitted on the event bus.
//
// Available event types:
//   - DecisionEvent: completed inference cycle decision
//   - FallbackEvent: cycle degraded to the fallback advisory
//   - AckEvent: crew acknowledgment result for a critical advisory
//   - EscalationEvent: critical advisory left unacknowledged
//   - AnomalyEvent: anomaly prediction surfaced by a cycle
package events
