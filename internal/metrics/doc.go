// Package metrics exposes Prometheus instrumentation for the daemon: HTTP
// request middleware plus counters for uploads, conversions, and reconcile
// passes. Everything registers on the default registry and is served from
// the daemon's /metrics endpoint.
package metrics
