// Package stream serves cataloged files over HTTP. Completed conversions are
// delivered from their artifact; files without one are delivered as-is.
// Single byte-range requests are honored so players can seek.
package stream
