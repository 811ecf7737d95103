package reconcile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"shuttle/internal/catalog"
	"shuttle/internal/logging"
	"shuttle/internal/media"
)

// entryInfo is swapped in tests to simulate files that list but cannot be
// stat'd.
var entryInfo = func(entry os.DirEntry) (fs.FileInfo, error) {
	return entry.Info()
}

type scannedFile struct {
	path   string
	folder catalog.Folder
	size   int64
	mtime  time.Time
}

type scanResult struct {
	originals []scannedFile
	artifacts []string
	// expectedArtifacts holds the delivery path of every original found on
	// disk, so artifacts without a surviving original stand out.
	expectedArtifacts map[string]bool
	// unreadable holds paths that were listed but could not be stat'd. The
	// files still exist, so the pass must leave their records and artifacts
	// alone.
	unreadable map[string]bool
}

// scanProject walks both logical folders of a project. A folder that does not
// exist yet simply contributes no files; an entry that cannot be stat'd is
// logged and skipped so one bad file never stalls the pass.
func (r *Reconciler) scanProject(project *catalog.Project) (*scanResult, error) {
	result := &scanResult{
		expectedArtifacts: make(map[string]bool),
		unreadable:        make(map[string]bool),
	}

	for _, folder := range catalog.Folders() {
		dir := filepath.Join(r.cfg.Paths.LibraryDir, project.Name, string(folder))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if media.IsDeliveryArtifact(path) {
				result.artifacts = append(result.artifacts, path)
				continue
			}
			info, err := entryInfo(entry)
			if err != nil {
				result.unreadable[path] = true
				result.expectedArtifacts[media.DeliveryPath(path)] = true
				r.logger.Warn("file skipped, stat failed",
					logging.String("path", path),
					logging.Error(err))
				continue
			}
			result.originals = append(result.originals, scannedFile{
				path:   path,
				folder: folder,
				size:   info.Size(),
				mtime:  info.ModTime().UTC(),
			})
			result.expectedArtifacts[media.DeliveryPath(path)] = true
		}
	}
	return result, nil
}
