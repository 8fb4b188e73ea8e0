// Package telemetry provides the observability plumbing for lxstack:
// structured logging with zerolog, request/operation counters with
// Prometheus, and optional span export with OpenTelemetry.
//
// lxstack is a short-lived, operator-invoked process, so nothing here runs a
// server: metrics are gathered and logged when a run ends, and traces are
// exported to stdout when enabled.
package telemetry
