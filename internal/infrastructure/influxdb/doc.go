// Package influxdb provides optional time-series metrics for Portal Core.
//
// The Client wraps the InfluxDB v2 client with connection management,
// batched non-blocking writes and health checks. The Recorder turns
// polling loop activity (polls, events, faults, resolution errors) into
// measurement points. When InfluxDB is disabled in configuration the
// controller runs with a no-op recorder instead.
package influxdb
