package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"shuttle/internal/catalog"
	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/media"
	"shuttle/internal/metrics"
)

// ErrProjectNotFound is returned when reconciling an unknown project.
var ErrProjectNotFound = errors.New("project not found")

// Result summarizes what one reconcile pass changed.
type Result struct {
	Added            int
	Updated          int
	Removed          int
	OrphansRemoved   int
	RequeuedForVideo int
}

// Reconciler converges the catalog with what is actually on disk under each
// project's library folders. Passes for the same project are serialized; a
// caller asking while another pass runs simply waits its turn.
type Reconciler struct {
	store  *catalog.Store
	cfg    *config.Config
	logger *slog.Logger
	wake   func()

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithWake registers a callback invoked after a pass that queued new video
// work, so conversion workers react without waiting for a poll tick.
func WithWake(wake func()) Option {
	return func(r *Reconciler) {
		r.wake = wake
	}
}

// New builds a Reconciler backed by the given store and configuration.
func New(store *catalog.Store, cfg *config.Config, logger *slog.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Reconciler{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "reconcile"),
		locks:  make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) projectLock(projectID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[projectID] = lock
	}
	return lock
}

// ReconcileAll runs one pass over every registered project.
func (r *Reconciler) ReconcileAll(ctx context.Context) (Result, error) {
	projects, err := r.store.ListProjects(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list projects: %w", err)
	}
	var total Result
	for _, project := range projects {
		result, err := r.ReconcileProject(ctx, project.ID)
		if err != nil {
			return total, err
		}
		total.Added += result.Added
		total.Updated += result.Updated
		total.Removed += result.Removed
		total.OrphansRemoved += result.OrphansRemoved
		total.RequeuedForVideo += result.RequeuedForVideo
	}
	return total, nil
}

// ReconcileProject converges one project: files found on disk but missing
// from the catalog are added, changed files get their stats refreshed (videos
// whose size changed are re-queued for conversion), cataloged files gone from
// disk are dropped, and delivery artifacts with no surviving original are
// deleted. A failure on one file is logged and the pass moves on.
func (r *Reconciler) ReconcileProject(ctx context.Context, projectID int64) (Result, error) {
	lock := r.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	project, err := r.store.GetProject(ctx, projectID)
	if err != nil {
		return Result{}, fmt.Errorf("look up project: %w", err)
	}
	if project == nil {
		return Result{}, ErrProjectNotFound
	}

	scan, err := r.scanProject(project)
	if err != nil {
		return Result{}, err
	}

	records, err := r.store.ListFilesByProject(ctx, projectID)
	if err != nil {
		return Result{}, fmt.Errorf("list cataloged files: %w", err)
	}
	byPath := make(map[string]*catalog.FileRecord, len(records))
	for _, record := range records {
		byPath[record.Path] = record
	}

	var result Result
	for _, entry := range scan.originals {
		record, known := byPath[entry.path]
		if !known {
			status := catalog.StatusNotApplicable
			if media.IsVideoPath(entry.path) {
				status = catalog.StatusPending
			}
			insert := &catalog.FileRecord{
				ProjectID: projectID,
				Folder:    entry.folder,
				Path:      entry.path,
				Size:      entry.size,
				MimeType:  media.TypeByPath(entry.path),
				MTime:     entry.mtime,
				Status:    status,
			}
			if err := r.store.InsertFile(ctx, insert); err != nil {
				r.logger.Error("file not cataloged",
					logging.String("path", entry.path),
					logging.Error(err))
				continue
			}
			result.Added++
			if status == catalog.StatusPending {
				result.RequeuedForVideo++
			}
			r.logger.Info("file discovered",
				logging.Int64(logging.FieldFileID, insert.ID),
				logging.String("path", entry.path),
				logging.String("status", string(status)))
			continue
		}
		delete(byPath, entry.path)

		sizeChanged := record.Size != entry.size
		if !sizeChanged && record.MTime.Equal(entry.mtime) {
			continue
		}
		if err := r.store.UpdateFileStats(ctx, record.ID, entry.size, entry.mtime); err != nil {
			r.logger.Error("file stats not refreshed",
				logging.String("path", entry.path),
				logging.Error(err))
			continue
		}
		result.Updated++
		// An mtime-only touch refreshes stats; only a size change means the
		// content differs from what was converted.
		if record.IsVideo() && sizeChanged {
			if err := r.store.ResetForTranscode(ctx, record.ID); err != nil {
				r.logger.Error("changed video not requeued",
					logging.String("path", entry.path),
					logging.Error(err))
				continue
			}
			removeArtifact(r.logger, record.Path)
			result.RequeuedForVideo++
			r.logger.Info("changed video requeued",
				logging.Int64(logging.FieldFileID, record.ID),
				logging.String("path", entry.path))
		}
	}

	// Whatever is left in byPath no longer exists on disk. Paths that listed
	// but failed to stat are still present, so their records survive.
	for _, record := range byPath {
		if scan.unreadable[record.Path] {
			continue
		}
		if err := r.store.DeleteFile(ctx, record.ID); err != nil {
			r.logger.Error("missing file not dropped",
				logging.String("path", record.Path),
				logging.Error(err))
			continue
		}
		removeArtifact(r.logger, record.Path)
		result.Removed++
		r.logger.Info("missing file dropped",
			logging.Int64(logging.FieldFileID, record.ID),
			logging.String("path", record.Path))
	}

	// Delivery artifacts whose original vanished are dead weight on disk.
	for _, artifact := range scan.artifacts {
		if scan.expectedArtifacts[artifact] {
			continue
		}
		if err := os.Remove(artifact); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			r.logger.Warn("orphan artifact not removed",
				logging.String("path", artifact),
				logging.Error(err))
			continue
		}
		result.OrphansRemoved++
		r.logger.Info("orphan artifact removed", logging.String("path", artifact))
	}

	if r.wake != nil && result.RequeuedForVideo > 0 {
		r.wake()
	}
	metrics.ReconcilePasses.Inc()
	return result, nil
}

func removeArtifact(logger *slog.Logger, originalPath string) {
	artifact := media.DeliveryPath(originalPath)
	if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
		logger.Warn("delivery artifact not removed",
			logging.String("path", artifact),
			logging.Error(err))
	}
}
