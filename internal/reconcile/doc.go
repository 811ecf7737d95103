// Package reconcile converges the metadata catalog with the files actually
// present in each project's library folders. It discovers files added out of
// band, refreshes stats for changed files (re-queuing videos for conversion),
// drops records for deleted files, and cleans up delivery artifacts whose
// original is gone. It runs on a schedule and on demand, and doubles as the
// backstop that picks up work lost between an upload finalize and a daemon
// restart.
package reconcile
