// Package catalog persists the authoritative view of projects, media files,
// and in-flight upload sessions in SQLite.
//
// Every other component serializes its writes through this store: the upload
// receiver and folder reconciler create and delete file rows, the transcode
// orchestrator owns status transitions, and the stream server reads. File rows
// double as the durable transcode work queue: a pending video row with a due
// next_attempt_at is claimable work, so an enqueue lost in transit is never
// lost for good.
package catalog
