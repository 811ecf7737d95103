package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shuttle/internal/catalog"
)

func TestClaimPendingIsExclusive(t *testing.T) {
	store := openStore(t)
	project := newProject(t, store, "claims")
	record := newVideoFile(t, store, project.ID, "/lib/claims/incoming/a.mov")

	if err := store.ClaimPending(context.Background(), record.ID); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := store.ClaimPending(context.Background(), record.ID); !errors.Is(err, catalog.ErrAlreadyProcessing) {
		t.Fatalf("expected ErrAlreadyProcessing, got %v", err)
	}

	got, _ := store.GetFile(context.Background(), record.ID)
	if got.Status != catalog.StatusProcessing || got.Attempts != 1 {
		t.Fatalf("unexpected state after claim: %s attempts=%d", got.Status, got.Attempts)
	}
}

func TestMarkCompletedRequiresProcessing(t *testing.T) {
	store := openStore(t)
	project := newProject(t, store, "completed")
	record := newVideoFile(t, store, project.ID, "/lib/completed/incoming/a.mov")

	if err := store.MarkCompleted(context.Background(), record.ID, "/x/a.delivery.mp4", 12.5); !errors.Is(err, catalog.ErrNotProcessing) {
		t.Fatalf("expected ErrNotProcessing, got %v", err)
	}

	if err := store.ClaimPending(context.Background(), record.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.MarkCompleted(context.Background(), record.ID, "/x/a.delivery.mp4", 12.5); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	got, _ := store.GetFile(context.Background(), record.ID)
	if got.Status != catalog.StatusCompleted || got.TranscodedPath != "/x/a.delivery.mp4" {
		t.Fatalf("unexpected completed state: %+v", got)
	}
	if got.DurationSeconds != 12.5 {
		t.Fatalf("expected duration, got %v", got.DurationSeconds)
	}
}

func TestReleaseForRetrySchedulesBackoff(t *testing.T) {
	store := openStore(t)
	project := newProject(t, store, "retries")
	record := newVideoFile(t, store, project.ID, "/lib/retries/incoming/a.mov")

	if err := store.ClaimPending(context.Background(), record.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	next := time.Now().UTC().Add(time.Hour)
	if err := store.ReleaseForRetry(context.Background(), record.ID, next); err != nil {
		t.Fatalf("release: %v", err)
	}

	got, _ := store.GetFile(context.Background(), record.ID)
	if got.Status != catalog.StatusPending || got.NextAttemptAt == nil {
		t.Fatalf("unexpected released state: %+v", got)
	}
	if got.LastError != "" {
		t.Fatalf("transient error must not persist, got %q", got.LastError)
	}

	// The backoff window hides the row from the queue until it elapses.
	candidate, err := store.NextPendingVideo(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("next pending: %v", err)
	}
	if candidate != nil {
		t.Fatalf("expected no due candidate, got %d", candidate.ID)
	}

	candidate, err = store.NextPendingVideo(context.Background(), next.Add(time.Second))
	if err != nil {
		t.Fatalf("next pending: %v", err)
	}
	if candidate == nil || candidate.ID != record.ID {
		t.Fatalf("expected candidate after backoff, got %+v", candidate)
	}
}

func TestMarkFailedRetainsError(t *testing.T) {
	store := openStore(t)
	project := newProject(t, store, "failures")
	record := newVideoFile(t, store, project.ID, "/lib/failures/incoming/a.mov")

	if err := store.ClaimPending(context.Background(), record.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.MarkFailed(context.Background(), record.ID, "exit status 1"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	got, _ := store.GetFile(context.Background(), record.ID)
	if got.Status != catalog.StatusFailed || got.LastError != "exit status 1" {
		t.Fatalf("unexpected failed state: %+v", got)
	}
}

func TestResetFailedClearsAttempts(t *testing.T) {
	store := openStore(t)
	project := newProject(t, store, "resets")
	record := newVideoFile(t, store, project.ID, "/lib/resets/incoming/a.mov")

	if err := store.ResetFailed(context.Background(), record.ID); !errors.Is(err, catalog.ErrNotInFailedState) {
		t.Fatalf("expected ErrNotInFailedState, got %v", err)
	}

	if err := store.ClaimPending(context.Background(), record.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.MarkFailed(context.Background(), record.ID, "boom"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := store.ResetFailed(context.Background(), record.ID); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	got, _ := store.GetFile(context.Background(), record.ID)
	if got.Status != catalog.StatusPending || got.Attempts != 0 || got.LastError != "" {
		t.Fatalf("unexpected reset state: %+v", got)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	store := openStore(t)
	project := newProject(t, store, "stuck")
	record := newVideoFile(t, store, project.ID, "/lib/stuck/incoming/a.mov")

	if err := store.ClaimPending(context.Background(), record.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	count, err := store.ResetStuckProcessing(context.Background())
	if err != nil {
		t.Fatalf("reset stuck: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one reset row, got %d", count)
	}

	got, _ := store.GetFile(context.Background(), record.ID)
	if got.Status != catalog.StatusPending {
		t.Fatalf("expected pending after reset, got %s", got.Status)
	}
}

func TestResetForTranscodeDropsArtifact(t *testing.T) {
	store := openStore(t)
	project := newProject(t, store, "changed")
	record := newVideoFile(t, store, project.ID, "/lib/changed/incoming/a.mov")

	if err := store.ClaimPending(context.Background(), record.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.MarkCompleted(context.Background(), record.ID, "/lib/changed/incoming/a.delivery.mp4", 30); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := store.ResetForTranscode(context.Background(), record.ID); err != nil {
		t.Fatalf("reset for transcode: %v", err)
	}

	got, _ := store.GetFile(context.Background(), record.ID)
	if got.Status != catalog.StatusPending || got.TranscodedPath != "" || got.Attempts != 0 {
		t.Fatalf("unexpected state after content change: %+v", got)
	}
}
