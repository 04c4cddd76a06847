// Package internaldefs holds the metric names and bucket bounds shared by the
// Prometheus and OTel exporters.
//
// Both exporters iterate the same definitions, so a renamed counter changes
// every export format at once.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
