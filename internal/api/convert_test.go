package api

import (
	"testing"
	"time"

	"shuttle/internal/catalog"
)

func TestFileViewFrom(t *testing.T) {
	next := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := &catalog.FileRecord{
		ID:            7,
		ProjectID:     3,
		Folder:        catalog.FolderIncoming,
		Path:          "/library/demo/incoming/clip.mov",
		Size:          1024,
		MimeType:      "video/quicktime",
		Status:        catalog.StatusPending,
		Attempts:      2,
		LastError:     "conversion exploded",
		NextAttemptAt: &next,
		CreatedAt:     time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC),
	}

	view := FileViewFrom(record)
	if view.Name != "clip.mov" {
		t.Fatalf("name = %q", view.Name)
	}
	if view.Folder != "incoming" || view.Status != "pending" {
		t.Fatalf("folder/status = %q/%q", view.Folder, view.Status)
	}
	if view.NextAttemptAt == "" {
		t.Fatal("next attempt timestamp missing")
	}
	if got := ParseTime(view.NextAttemptAt); !got.Equal(next) {
		t.Fatalf("round-tripped next attempt = %v, want %v", got, next)
	}
}

func TestFileViewFromOmitsUnsetFields(t *testing.T) {
	view := FileViewFrom(&catalog.FileRecord{
		ID:     1,
		Folder: catalog.FolderOutgoing,
		Path:   "/library/demo/outgoing/notes.txt",
		Status: catalog.StatusNotApplicable,
	})
	if view.NextAttemptAt != "" || view.CreatedAt != "" {
		t.Fatalf("zero times should render empty, got %q %q", view.NextAttemptAt, view.CreatedAt)
	}
}

func TestParseTimeToleratesUnknownInput(t *testing.T) {
	if got := ParseTime("not a timestamp"); !got.IsZero() {
		t.Fatalf("garbage input should yield zero time, got %v", got)
	}
	if got := ParseTime(""); !got.IsZero() {
		t.Fatalf("empty input should yield zero time, got %v", got)
	}
}
