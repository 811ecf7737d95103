// Package daemon runs the long-lived shuttle process: the HTTP API for
// uploads, files, projects, and delivery, the conversion worker pool, and
// the periodic reconcile and session-sweep jobs. A lock file keeps a host to
// one instance.
package daemon
