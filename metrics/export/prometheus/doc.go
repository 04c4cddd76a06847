// Package prometheus renders goAdmin engine metrics in the Prometheus text
// exposition format.
//
// Counters are named goadmin_*_total. Request latency is exported as the
// goadmin_request_latency_seconds histogram when latency histograms are
// enabled.
//
// # What this package must NOT do
//
//   - Register anything in a global registry. Callers mount Handler.
//   - Mutate engine state.
package prometheus
