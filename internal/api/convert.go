package api

import (
	"path/filepath"
	"time"

	"shuttle/internal/catalog"
)

// ProjectViewFrom converts a catalog project into its API representation.
func ProjectViewFrom(project *catalog.Project) ProjectView {
	return ProjectView{
		ID:        project.ID,
		Name:      project.Name,
		CreatedAt: formatTime(project.CreatedAt),
	}
}

// FileViewFrom converts a catalog file record into its API representation.
func FileViewFrom(record *catalog.FileRecord) FileView {
	view := FileView{
		ID:              record.ID,
		ProjectID:       record.ProjectID,
		Folder:          string(record.Folder),
		Path:            record.Path,
		Name:            filepath.Base(record.Path),
		Size:            record.Size,
		MimeType:        record.MimeType,
		Status:          string(record.Status),
		Attempts:        record.Attempts,
		LastError:       record.LastError,
		TranscodedPath:  record.TranscodedPath,
		DurationSeconds: record.DurationSeconds,
		CreatedAt:       formatTime(record.CreatedAt),
		UpdatedAt:       formatTime(record.UpdatedAt),
	}
	if record.NextAttemptAt != nil {
		view.NextAttemptAt = formatTime(*record.NextAttemptAt)
	}
	return view
}

// SessionViewFrom converts an upload session into its API representation.
func SessionViewFrom(session *catalog.UploadSession) SessionView {
	return SessionView{
		Token:     session.Token,
		ProjectID: session.ProjectID,
		Folder:    string(session.Folder),
		Name:      session.Name,
		Length:    session.Length,
		Offset:    session.Offset,
		CreatedAt: formatTime(session.CreatedAt),
		UpdatedAt: formatTime(session.UpdatedAt),
	}
}

// FileViewsFrom converts a slice of records.
func FileViewsFrom(records []*catalog.FileRecord) []FileView {
	views := make([]FileView, 0, len(records))
	for _, record := range records {
		views = append(views, FileViewFrom(record))
	}
	return views
}

// ProjectViewsFrom converts a slice of projects.
func ProjectViewsFrom(projects []*catalog.Project) []ProjectView {
	views := make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		views = append(views, ProjectViewFrom(project))
	}
	return views
}

// SessionViewsFrom converts a slice of sessions.
func SessionViewsFrom(sessions []*catalog.UploadSession) []SessionView {
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionViewFrom(session))
	}
	return views
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime reverses formatTime for consumers that need display formatting.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(dateTimeFormat, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
