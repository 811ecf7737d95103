// Package logging builds the slog loggers used across the daemon and CLI.
//
// It provides a human-oriented console handler, a JSON handler for log
// shippers, typed attribute helpers, and context-derived fields so every
// component logs the same correlation keys (component, file id, project id,
// session token, request id).
package logging
