package catalog

import (
	"strings"
	"time"
)

// Folder classifies which side of a project a file belongs to.
type Folder string

const (
	FolderIncoming Folder = "incoming"
	FolderOutgoing Folder = "outgoing"
)

// ParseFolder converts a string into a known Folder.
func ParseFolder(value string) (Folder, bool) {
	normalized := Folder(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case FolderIncoming, FolderOutgoing:
		return normalized, true
	}
	return "", false
}

// Folders returns both logical folders in scan order.
func Folders() []Folder {
	return []Folder{FolderIncoming, FolderOutgoing}
}

// TranscodeStatus represents the conversion lifecycle of a file.
type TranscodeStatus string

const (
	StatusPending       TranscodeStatus = "pending"
	StatusProcessing    TranscodeStatus = "processing"
	StatusCompleted     TranscodeStatus = "completed"
	StatusFailed        TranscodeStatus = "failed"
	StatusNotApplicable TranscodeStatus = "not_applicable"
)

var allStatuses = []TranscodeStatus{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusNotApplicable,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []TranscodeStatus {
	cp := make([]TranscodeStatus, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known TranscodeStatus.
func ParseStatus(value string) (TranscodeStatus, bool) {
	normalized := TranscodeStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if normalized == status {
			return status, true
		}
	}
	return "", false
}

// Project is a minimal row bounding the lifetime of its files.
type Project struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// FileRecord is the durable metadata row for one media asset.
type FileRecord struct {
	ID              int64
	ProjectID       int64
	Folder          Folder
	Path            string
	TranscodedPath  string
	Size            int64
	MimeType        string
	DurationSeconds float64
	MTime           time.Time
	Status          TranscodeStatus
	Attempts        int
	LastError       string
	NextAttemptAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsVideo reports whether the record participates in transcoding at all.
func (f *FileRecord) IsVideo() bool {
	return f.Status != StatusNotApplicable
}

// UploadSession tracks one resumable upload in progress. Offset only ever
// advances; bytes below it are durable on the staging file.
type UploadSession struct {
	Token       string
	ProjectID   int64
	Folder      Folder
	Name        string
	Length      int64
	Offset      int64
	StagingPath string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Remaining returns the byte count still missing from the session.
func (s *UploadSession) Remaining() int64 {
	return s.Length - s.Offset
}
