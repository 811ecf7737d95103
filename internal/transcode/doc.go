// Package transcode converts cataloged videos into streamable delivery
// artifacts. A small worker pool polls the catalog for pending files, claims
// them atomically, and runs the external conversion tool. Failed attempts
// retry with doubling backoff until the attempt budget is exhausted, after
// which the file stays failed until an operator requeues it. Originals are
// never modified; artifacts are written next to them under a distinct
// suffix.
package transcode
