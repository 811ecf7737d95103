// Package media holds the file naming and type rules shared by the upload
// receiver, folder reconciler, transcode orchestrator, and stream server.
//
// The delivery artifact naming scheme lives here: a transcoded file sits next
// to its original with the ".delivery.mp4" suffix, so any component can map
// between the two without a catalog lookup.
package media
