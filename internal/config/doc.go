// Package config loads, normalizes, and validates shuttle configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SHUTTLE_CONFIG environment
// fallback. The Config type centralizes every knob the daemon and CLI need:
// staging and library directories, the API bind address, upload session
// policy, reconcile cadence, and transcode worker/retry settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
