// Command shuttle is the operator CLI for a running shuttled daemon. It
// talks to the daemon's HTTP API for status, project management, file
// listings, reconcile passes, and conversion retries.
package main
