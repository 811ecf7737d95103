package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const fileColumns = `id, project_id, folder, path, transcoded_path, size_bytes, mime_type,
    duration_seconds, mtime, transcode_status, attempts, last_error, next_attempt_at,
    created_at, updated_at`

// InsertFile persists a new file row and assigns its identifier. The caller
// sets ProjectID, Folder, Path, Size, MimeType, MTime, and Status; everything
// else starts zeroed.
func (s *Store) InsertFile(ctx context.Context, record *FileRecord) error {
	if record == nil {
		return errors.New("file record required")
	}
	now := time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO files (
            project_id, folder, path, transcoded_path, size_bytes, mime_type,
            duration_seconds, mtime, transcode_status, attempts, last_error,
            next_attempt_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ProjectID,
		string(record.Folder),
		record.Path,
		nullableString(record.TranscodedPath),
		record.Size,
		record.MimeType,
		nullableFloat(record.DurationSeconds),
		timestamp(record.MTime),
		string(record.Status),
		record.Attempts,
		nullableString(record.LastError),
		nullableTime(record.NextAttemptAt),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPathExists
		}
		return fmt.Errorf("insert file: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	record.ID = id
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

// GetFile fetches a file row by identifier. Missing rows yield nil.
func (s *Store) GetFile(ctx context.Context, id int64) (*FileRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	record, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return record, nil
}

// GetFileByPath fetches a file row by original path. Missing rows yield nil.
func (s *Store) GetFileByPath(ctx context.Context, path string) (*FileRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE path = ?`, path)
	record, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file by path: %w", err)
	}
	return record, nil
}

// ListFilesByProject returns the project's file rows ordered by path.
func (s *Store) ListFilesByProject(ctx context.Context, projectID int64) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+fileColumns+` FROM files WHERE project_id = ? ORDER BY path`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	return collectFiles(rows)
}

// UpdateFileStats refreshes size and modification time in place.
func (s *Store) UpdateFileStats(ctx context.Context, id int64, size int64, mtime time.Time) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE files SET size_bytes = ?, mtime = ?, updated_at = ? WHERE id = ?`,
		size,
		timestamp(mtime),
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update file stats: %w", err)
	}
	return nil
}

// DeleteFile removes a file row.
func (s *Store) DeleteFile(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// CountFilesByStatus aggregates file rows per transcode status.
func (s *Store) CountFilesByStatus(ctx context.Context) (map[TranscodeStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT transcode_status, COUNT(1) FROM files GROUP BY transcode_status`)
	if err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}
	defer rows.Close()

	counts := make(map[TranscodeStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[TranscodeStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

func collectFiles(rows *sql.Rows) ([]*FileRecord, error) {
	var records []*FileRecord
	for rows.Next() {
		record, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return records, nil
}

func scanFile(row rowScanner) (*FileRecord, error) {
	var (
		record         FileRecord
		folder         string
		status         string
		transcodedPath sql.NullString
		duration       sql.NullFloat64
		lastError      sql.NullString
		nextAttemptAt  sql.NullString
		mtime          string
		createdAt      string
		updatedAt      string
	)
	if err := row.Scan(
		&record.ID,
		&record.ProjectID,
		&folder,
		&record.Path,
		&transcodedPath,
		&record.Size,
		&record.MimeType,
		&duration,
		&mtime,
		&status,
		&record.Attempts,
		&lastError,
		&nextAttemptAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	record.Folder = Folder(folder)
	record.Status = TranscodeStatus(status)
	record.TranscodedPath = transcodedPath.String
	record.DurationSeconds = duration.Float64
	record.LastError = lastError.String
	record.MTime = parseTimestamp(mtime)
	record.CreatedAt = parseTimestamp(createdAt)
	record.UpdatedAt = parseTimestamp(updatedAt)
	if nextAttemptAt.Valid {
		parsed := parseTimestamp(nextAttemptAt.String)
		record.NextAttemptAt = &parsed
	}
	return &record, nil
}
