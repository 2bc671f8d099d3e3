// Package metric provides Prometheus metrics for authtoken.
//
//   - prometheus.go: the Registry of application metrics and its HTTP handler
//   - collector.go: a collector reporting stored token counts per kind
//
// All Registry methods are safe on a nil *Registry, so components can be
// built without metrics in tests.
package metric
