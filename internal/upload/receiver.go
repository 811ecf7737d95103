package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"shuttle/internal/catalog"
	"shuttle/internal/config"
	"shuttle/internal/fileutil"
	"shuttle/internal/logging"
	"shuttle/internal/media"
	"shuttle/internal/metrics"
)

// Receiver manages resumable chunked uploads. Chunks are appended to a
// staging file and acknowledged only after the bytes are synced to disk, so
// a client that resumes from the reported offset never loses data.
type Receiver struct {
	store  *catalog.Store
	cfg    *config.Config
	logger *slog.Logger
	wake   func()

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option customizes a Receiver.
type Option func(*Receiver)

// WithWake registers a callback invoked after a successful finalize so the
// conversion workers pick the new file up without waiting for a poll tick.
func WithWake(wake func()) Option {
	return func(r *Receiver) {
		r.wake = wake
	}
}

// NewReceiver builds a Receiver backed by the given store and configuration.
func NewReceiver(store *catalog.Store, cfg *config.Config, logger *slog.Logger, opts ...Option) *Receiver {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Receiver{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "upload"),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// sessionLock serializes chunk appends and lifecycle changes for one token.
// The offset precondition is only meaningful if no other append can slip a
// write in between the check and the acknowledgement.
func (r *Receiver) sessionLock(token string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[token]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[token] = lock
	}
	return lock
}

func (r *Receiver) forgetLock(token string) {
	r.mu.Lock()
	delete(r.locks, token)
	r.mu.Unlock()
}

// CreateSession opens a new upload session for one file. The declared length
// is fixed for the session's lifetime; the staging file is created
// immediately so the first chunk has somewhere to land.
func (r *Receiver) CreateSession(ctx context.Context, projectID int64, folder catalog.Folder, name string, length int64) (*catalog.UploadSession, error) {
	if length < 0 {
		return nil, ErrInvalidLength
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	project, err := r.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("look up project: %w", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	token := uuid.NewString()
	stagingPath := filepath.Join(r.cfg.UploadStagingDir(), token+".part")
	if err := os.MkdirAll(filepath.Dir(stagingPath), 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	handle, err := os.OpenFile(stagingPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	if err := handle.Close(); err != nil {
		return nil, fmt.Errorf("close staging file: %w", err)
	}

	session := &catalog.UploadSession{
		Token:       token,
		ProjectID:   projectID,
		Folder:      folder,
		Name:        name,
		Length:      length,
		StagingPath: stagingPath,
	}
	if err := r.store.CreateSession(ctx, session); err != nil {
		os.Remove(stagingPath)
		return nil, fmt.Errorf("create upload session: %w", err)
	}

	r.logger.Info("upload session created",
		logging.String(logging.FieldSession, token),
		logging.Int64(logging.FieldProjectID, projectID),
		logging.String("name", name),
		logging.Int64("length", length))
	return session, nil
}

// Offset returns the session's current durable offset. A client resuming an
// interrupted upload asks here and continues from the answer.
func (r *Receiver) Offset(ctx context.Context, token string) (*catalog.UploadSession, error) {
	session, err := r.store.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// AppendChunk writes one chunk at the given offset. The offset must equal the
// session's current offset exactly; otherwise nothing is written and the
// caller should re-query Offset and resume from there. Bytes are synced to
// the staging file before the session offset advances, so an acknowledged
// offset is always durable.
func (r *Receiver) AppendChunk(ctx context.Context, token string, offset int64, chunk []byte) (int64, error) {
	lock := r.sessionLock(token)
	lock.Lock()
	defer lock.Unlock()

	session, err := r.store.GetSession(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("look up session: %w", err)
	}
	if session == nil {
		return 0, ErrSessionNotFound
	}
	if int64(len(chunk)) > r.cfg.Upload.MaxChunkBytes {
		return session.Offset, ErrChunkTooLarge
	}
	if offset != session.Offset {
		return session.Offset, ErrOffsetMismatch
	}
	if offset+int64(len(chunk)) > session.Length {
		return session.Offset, ErrLengthExceeded
	}
	if len(chunk) == 0 {
		return session.Offset, nil
	}

	handle, err := os.OpenFile(session.StagingPath, os.O_WRONLY, 0o644)
	if err != nil {
		return session.Offset, fmt.Errorf("open staging file: %w", err)
	}
	if _, err := handle.WriteAt(chunk, offset); err != nil {
		handle.Close()
		return session.Offset, fmt.Errorf("write chunk: %w", err)
	}
	if err := handle.Sync(); err != nil {
		handle.Close()
		return session.Offset, fmt.Errorf("sync staging file: %w", err)
	}
	if err := handle.Close(); err != nil {
		return session.Offset, fmt.Errorf("close staging file: %w", err)
	}

	next := offset + int64(len(chunk))
	if err := r.store.AdvanceSessionOffset(ctx, token, offset, next); err != nil {
		if errors.Is(err, catalog.ErrOffsetMismatch) {
			return session.Offset, ErrOffsetMismatch
		}
		return session.Offset, fmt.Errorf("advance session offset: %w", err)
	}
	metrics.UploadBytesReceived.Add(float64(len(chunk)))
	return next, nil
}

// Finalize moves a complete upload from staging into the project library,
// catalogs it, and removes the session. Video files enter the conversion
// pipeline as pending; everything else is cataloged as not applicable.
func (r *Receiver) Finalize(ctx context.Context, token string) (*catalog.FileRecord, error) {
	lock := r.sessionLock(token)
	lock.Lock()
	defer lock.Unlock()

	session, err := r.store.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Offset != session.Length {
		return nil, ErrIncompleteUpload
	}
	project, err := r.store.GetProject(ctx, session.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("look up project: %w", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	finalPath := filepath.Join(r.cfg.Paths.LibraryDir, project.Name, string(session.Folder), session.Name)
	if _, err := os.Stat(finalPath); err == nil {
		return nil, ErrDestinationExists
	}

	info, err := os.Stat(session.StagingPath)
	if err != nil {
		return nil, fmt.Errorf("stat staging file: %w", err)
	}

	status := catalog.StatusNotApplicable
	if media.IsVideoPath(finalPath) {
		status = catalog.StatusPending
	}
	record := &catalog.FileRecord{
		ProjectID: session.ProjectID,
		Folder:    session.Folder,
		Path:      finalPath,
		Size:      info.Size(),
		MimeType:  media.TypeByPath(finalPath),
		MTime:     info.ModTime().UTC(),
		Status:    status,
	}
	if err := r.store.InsertFile(ctx, record); err != nil {
		if errors.Is(err, catalog.ErrPathExists) {
			return nil, ErrDestinationExists
		}
		return nil, fmt.Errorf("catalog uploaded file: %w", err)
	}
	if err := fileutil.MoveFile(session.StagingPath, finalPath); err != nil {
		r.store.DeleteFile(ctx, record.ID)
		return nil, fmt.Errorf("move upload into library: %w", err)
	}
	if _, err := r.store.DeleteSession(ctx, token); err != nil {
		r.logger.Warn("finalized session row not removed",
			logging.String(logging.FieldSession, token),
			logging.Error(err))
	}
	r.forgetLock(token)

	metrics.UploadsFinalized.Inc()
	r.logger.Info("upload finalized",
		logging.String(logging.FieldSession, token),
		logging.Int64(logging.FieldFileID, record.ID),
		logging.String("path", finalPath),
		logging.String("status", string(record.Status)))
	if r.wake != nil && status == catalog.StatusPending {
		r.wake()
	}
	return record, nil
}

// Abort removes an in-flight session and its staging file.
func (r *Receiver) Abort(ctx context.Context, token string) error {
	lock := r.sessionLock(token)
	lock.Lock()
	defer lock.Unlock()

	session, err := r.store.GetSession(ctx, token)
	if err != nil {
		return fmt.Errorf("look up session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if _, err := r.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := os.Remove(session.StagingPath); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("staging file not removed",
			logging.String(logging.FieldSession, token),
			logging.Error(err))
	}
	r.forgetLock(token)
	r.logger.Info("upload session aborted", logging.String(logging.FieldSession, token))
	return nil
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}
