// Package upload implements resumable chunked file ingestion. Each upload
// runs inside a session with a fixed declared length; chunks land in a
// staging file and the durable offset only advances after a synced write.
// Finalize moves the assembled file into the project library and catalogs
// it for conversion. Abandoned sessions are swept after a TTL.
package upload
