// Package services defines shared utilities consumed by the pipeline
// components and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp file IDs, project IDs, session tokens, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper for consistent failure
//     classification.
package services
