package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ProjectView describes a project in a transport-friendly format.
type ProjectView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// FileView describes a cataloged file in a transport-friendly format.
type FileView struct {
	ID              int64   `json:"id"`
	ProjectID       int64   `json:"projectId"`
	Folder          string  `json:"folder"`
	Path            string  `json:"path"`
	Name            string  `json:"name"`
	Size            int64   `json:"size"`
	MimeType        string  `json:"mimeType"`
	Status          string  `json:"status"`
	Attempts        int     `json:"attempts"`
	LastError       string  `json:"lastError,omitempty"`
	NextAttemptAt   string  `json:"nextAttemptAt,omitempty"`
	TranscodedPath  string  `json:"transcodedPath,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	CreatedAt       string  `json:"createdAt,omitempty"`
	UpdatedAt       string  `json:"updatedAt,omitempty"`
}

// SessionView describes an in-flight upload session.
type SessionView struct {
	Token     string `json:"token"`
	ProjectID int64  `json:"projectId"`
	Folder    string `json:"folder"`
	Name      string `json:"name"`
	Length    int64  `json:"length"`
	Offset    int64  `json:"offset"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// StatusResponse aggregates daemon runtime information.
type StatusResponse struct {
	Running        bool           `json:"running"`
	PID            int            `json:"pid"`
	DatabasePath   string         `json:"databasePath"`
	LockFilePath   string         `json:"lockFilePath"`
	FilesByStatus  map[string]int `json:"filesByStatus"`
	ActiveSessions int            `json:"activeSessions"`
	Projects       int            `json:"projects"`
}

// ReconcileResponse reports what a reconcile pass changed.
type ReconcileResponse struct {
	Added          int `json:"added"`
	Updated        int `json:"updated"`
	Removed        int `json:"removed"`
	OrphansRemoved int `json:"orphansRemoved"`
	Requeued       int `json:"requeued"`
}

// CreateProjectRequest names a new project.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// CreateUploadRequest opens a resumable upload session.
type CreateUploadRequest struct {
	ProjectID int64  `json:"projectId"`
	Folder    string `json:"folder"`
	Name      string `json:"name"`
	Length    int64  `json:"length"`
}

// ProjectListResponse wraps a collection of projects.
type ProjectListResponse struct {
	Projects []ProjectView `json:"projects"`
}

// FileListResponse wraps a collection of files.
type FileListResponse struct {
	Files []FileView `json:"files"`
}

// SessionListResponse wraps a collection of upload sessions.
type SessionListResponse struct {
	Sessions []SessionView `json:"sessions"`
}

// ErrorResponse carries a machine-readable error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
