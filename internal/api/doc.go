// Package api defines the transport types exchanged between the daemon and
// its clients, converters from catalog rows to those types, and the HTTP
// client the CLI uses to talk to a running daemon.
package api
