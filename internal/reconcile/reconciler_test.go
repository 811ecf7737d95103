package reconcile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shuttle/internal/catalog"
	"shuttle/internal/config"
	"shuttle/internal/media"
	"shuttle/internal/reconcile"
	"shuttle/internal/testsupport"
)

func projectDir(cfg *config.Config, project string, folder catalog.Folder) string {
	return filepath.Join(cfg.Paths.LibraryDir, project, string(folder))
}

func TestReconcileDiscoversNewFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, store, "demo")
	ctx := context.Background()

	incoming := projectDir(cfg, "demo", catalog.FolderIncoming)
	testsupport.WriteFile(t, filepath.Join(incoming, "clip.mov"), 128)
	testsupport.WriteFile(t, filepath.Join(incoming, "notes.txt"), 16)

	rec := reconcile.New(store, cfg, nil)
	result, err := rec.ReconcileProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("ReconcileProject: %v", err)
	}
	if result.Added != 2 {
		t.Fatalf("added = %d, want 2", result.Added)
	}

	clip, err := store.GetFileByPath(ctx, filepath.Join(incoming, "clip.mov"))
	if err != nil {
		t.Fatalf("GetFileByPath: %v", err)
	}
	if clip == nil || clip.Status != catalog.StatusPending {
		t.Fatalf("video should be pending, got %+v", clip)
	}
	notes, err := store.GetFileByPath(ctx, filepath.Join(incoming, "notes.txt"))
	if err != nil {
		t.Fatalf("GetFileByPath: %v", err)
	}
	if notes == nil || notes.Status != catalog.StatusNotApplicable {
		t.Fatalf("text file should be not_applicable, got %+v", notes)
	}
}

func TestReconcileIsConvergent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, store, "demo")
	ctx := context.Background()

	incoming := projectDir(cfg, "demo", catalog.FolderIncoming)
	testsupport.WriteFile(t, filepath.Join(incoming, "clip.mov"), 128)

	rec := reconcile.New(store, cfg, nil)
	if _, err := rec.ReconcileProject(ctx, project.ID); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := rec.ReconcileProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second != (reconcile.Result{}) {
		t.Fatalf("second pass should be a no-op, got %+v", second)
	}
}

func TestReconcileRequeuesChangedVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, store, "demo")
	ctx := context.Background()

	incoming := projectDir(cfg, "demo", catalog.FolderIncoming)
	original := filepath.Join(incoming, "clip.mov")
	testsupport.WriteFile(t, original, 128)

	rec := reconcile.New(store, cfg, nil)
	if _, err := rec.ReconcileProject(ctx, project.ID); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	// Simulate a completed conversion so the requeue has an artifact to drop.
	record, err := store.GetFileByPath(ctx, original)
	if err != nil || record == nil {
		t.Fatalf("GetFileByPath: %v %v", record, err)
	}
	if err := store.ClaimPending(ctx, record.ID); err != nil {
		t.Fatalf("ClaimPending: %v", err)
	}
	artifact := media.DeliveryPath(original)
	testsupport.WriteFile(t, artifact, 64)
	if err := store.MarkCompleted(ctx, record.ID, artifact, 12.5); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	// Grow the file and push its mtime forward so the change is visible.
	testsupport.WriteFile(t, original, 256)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(original, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	result, err := rec.ReconcileProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("pass after change: %v", err)
	}
	if result.Updated != 1 || result.RequeuedForVideo != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	refreshed, err := store.GetFile(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if refreshed.Status != catalog.StatusPending {
		t.Fatalf("status = %s, want pending", refreshed.Status)
	}
	if refreshed.Size != 256 {
		t.Fatalf("size = %d, want 256", refreshed.Size)
	}
	if refreshed.TranscodedPath != "" {
		t.Fatalf("transcoded path should be cleared, got %q", refreshed.TranscodedPath)
	}
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Fatalf("stale artifact should be removed, stat err = %v", err)
	}
}

func TestReconcileMtimeTouchRefreshesStatsOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, store, "demo")
	ctx := context.Background()

	incoming := projectDir(cfg, "demo", catalog.FolderIncoming)
	original := filepath.Join(incoming, "clip.mov")
	testsupport.WriteFile(t, original, 128)

	rec := reconcile.New(store, cfg, nil)
	if _, err := rec.ReconcileProject(ctx, project.ID); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	record, err := store.GetFileByPath(ctx, original)
	if err != nil || record == nil {
		t.Fatalf("GetFileByPath: %v %v", record, err)
	}
	if err := store.ClaimPending(ctx, record.ID); err != nil {
		t.Fatalf("ClaimPending: %v", err)
	}
	artifact := media.DeliveryPath(original)
	testsupport.WriteFile(t, artifact, 64)
	if err := store.MarkCompleted(ctx, record.ID, artifact, 12.5); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	// Touch the file without changing its contents. Same size means the
	// completed conversion is still valid.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(original, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	result, err := rec.ReconcileProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("pass after touch: %v", err)
	}
	if result.Updated != 1 || result.RequeuedForVideo != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	refreshed, err := store.GetFile(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if refreshed.Status != catalog.StatusCompleted {
		t.Fatalf("status = %s, want completed", refreshed.Status)
	}
	if refreshed.TranscodedPath != artifact {
		t.Fatalf("transcoded path = %q, want %q", refreshed.TranscodedPath, artifact)
	}
	if _, err := os.Stat(artifact); err != nil {
		t.Fatalf("artifact should survive an mtime touch: %v", err)
	}
}

func TestReconcileContinuesPastOneBadFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, store, "demo")
	other := testsupport.NewProject(t, store, "other")
	ctx := context.Background()

	incoming := projectDir(cfg, "demo", catalog.FolderIncoming)
	blocked := filepath.Join(incoming, "aaa.mov")
	testsupport.WriteFile(t, blocked, 128)
	testsupport.WriteFile(t, filepath.Join(incoming, "zzz.mov"), 128)

	// Claim aaa.mov's path under another project so cataloging it fails.
	conflict := &catalog.FileRecord{
		ProjectID: other.ID,
		Folder:    catalog.FolderIncoming,
		Path:      blocked,
		Size:      1,
		Status:    catalog.StatusNotApplicable,
	}
	if err := store.InsertFile(ctx, conflict); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}

	rec := reconcile.New(store, cfg, nil)
	result, err := rec.ReconcileProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("ReconcileProject: %v", err)
	}
	if result.Added != 1 {
		t.Fatalf("added = %d, want 1 despite the conflicting path", result.Added)
	}
	record, err := store.GetFileByPath(ctx, filepath.Join(incoming, "zzz.mov"))
	if err != nil {
		t.Fatalf("GetFileByPath: %v", err)
	}
	if record == nil {
		t.Fatal("file after the failing one should still be cataloged")
	}
}

func TestReconcileDropsMissingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, store, "demo")
	ctx := context.Background()

	incoming := projectDir(cfg, "demo", catalog.FolderIncoming)
	original := filepath.Join(incoming, "clip.mov")
	testsupport.WriteFile(t, original, 128)

	rec := reconcile.New(store, cfg, nil)
	if _, err := rec.ReconcileProject(ctx, project.ID); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	if err := os.Remove(original); err != nil {
		t.Fatalf("remove original: %v", err)
	}
	result, err := rec.ReconcileProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("pass after delete: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("removed = %d, want 1", result.Removed)
	}
	record, err := store.GetFileByPath(ctx, original)
	if err != nil {
		t.Fatalf("GetFileByPath: %v", err)
	}
	if record != nil {
		t.Fatal("record should be gone after its file disappeared")
	}
}

func TestReconcileRemovesOrphanArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, store, "demo")
	ctx := context.Background()

	incoming := projectDir(cfg, "demo", catalog.FolderIncoming)
	orphan := filepath.Join(incoming, "gone.delivery.mp4")
	testsupport.WriteFile(t, orphan, 64)

	kept := filepath.Join(incoming, "clip.mov")
	testsupport.WriteFile(t, kept, 128)
	testsupport.WriteFile(t, media.DeliveryPath(kept), 64)

	rec := reconcile.New(store, cfg, nil)
	result, err := rec.ReconcileProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("ReconcileProject: %v", err)
	}
	if result.OrphansRemoved != 1 {
		t.Fatalf("orphans removed = %d, want 1", result.OrphansRemoved)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("orphan should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(media.DeliveryPath(kept)); err != nil {
		t.Fatalf("live artifact should survive: %v", err)
	}
	// Artifacts are never cataloged as files in their own right.
	record, err := store.GetFileByPath(ctx, media.DeliveryPath(kept))
	if err != nil {
		t.Fatalf("GetFileByPath: %v", err)
	}
	if record != nil {
		t.Fatal("delivery artifact must not be cataloged")
	}
}

func TestReconcileMissingFoldersYieldNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, store, "empty")

	rec := reconcile.New(store, cfg, nil)
	result, err := rec.ReconcileProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("ReconcileProject: %v", err)
	}
	if result != (reconcile.Result{}) {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestReconcileUnknownProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	rec := reconcile.New(store, cfg, nil)
	if _, err := rec.ReconcileProject(context.Background(), 42); !errors.Is(err, reconcile.ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestReconcileWakesWorkersOnNewVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, store, "demo")

	testsupport.WriteFile(t, filepath.Join(projectDir(cfg, "demo", catalog.FolderIncoming), "clip.mov"), 128)

	woke := false
	rec := reconcile.New(store, cfg, nil, reconcile.WithWake(func() { woke = true }))
	if _, err := rec.ReconcileProject(context.Background(), project.ID); err != nil {
		t.Fatalf("ReconcileProject: %v", err)
	}
	if !woke {
		t.Fatal("expected wake callback after queueing a new video")
	}
}
