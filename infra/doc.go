// Package infra contains technical adapters for the advisory service:
// the MQTT advice transport, telemetry ingest, metrics sinks and error
// monitoring. These packages should depend only on the interfaces
// defined in the core packages.
package infra
