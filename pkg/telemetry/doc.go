// Package telemetry wires OpenTelemetry tracing and metrics for the policy
// engine. SetupProvider bootstraps the process-wide tracer provider from
// configuration; RecordPolicySave emits the per-save counters and latency
// histogram consumed by dashboards.
package telemetry
