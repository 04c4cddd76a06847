// Package otel exposes goAdmin engine metrics as OpenTelemetry asynchronous
// instruments.
//
// Each counter becomes an Int64ObservableCounter. The request latency
// histogram is flattened into one gauge per cumulative bucket plus _count and
// _sum gauges, all fed by a single callback over the engine snapshot.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
