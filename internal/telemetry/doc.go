// Package telemetry forwards finished validation runs to external sinks:
// a JSON summary over MQTT and counters in InfluxDB.
//
// Sinks are optional and independent. Telemetry never affects the outcome
// of a run; callers log the error returned by Publish and carry on.
package telemetry
