package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = `token, project_id, folder, name, length_bytes, offset_bytes,
    staging_path, created_at, updated_at`

// CreateSession persists a new upload session row.
func (s *Store) CreateSession(ctx context.Context, session *UploadSession) error {
	if session == nil {
		return errors.New("session required")
	}
	now := time.Now().UTC()

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO upload_sessions (
            token, project_id, folder, name, length_bytes, offset_bytes,
            staging_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.Token,
		session.ProjectID,
		string(session.Folder),
		session.Name,
		session.Length,
		session.Offset,
		session.StagingPath,
		timestamp(now),
		timestamp(now),
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	session.CreatedAt = now
	session.UpdatedAt = now
	return nil
}

// GetSession fetches a session by token. Missing sessions yield nil.
func (s *Store) GetSession(ctx context.Context, token string) (*UploadSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM upload_sessions WHERE token = ?`, token)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// AdvanceSessionOffset moves the durable offset from one value to the next.
// The old offset is the optimistic precondition; a concurrent append that got
// there first makes this fail with ErrOffsetMismatch rather than double-count.
func (s *Store) AdvanceSessionOffset(ctx context.Context, token string, from, to int64) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE upload_sessions SET offset_bytes = ?, updated_at = ?
         WHERE token = ? AND offset_bytes = ?`,
		to,
		timestamp(time.Now()),
		token,
		from,
	)
	if err != nil {
		return fmt.Errorf("advance session offset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOffsetMismatch
	}
	return nil
}

// DeleteSession removes a session row, reporting whether it existed.
func (s *Store) DeleteSession(ctx context.Context, token string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM upload_sessions WHERE token = ?`, token)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListSessions returns every active session ordered by creation.
func (s *Store) ListSessions(ctx context.Context) ([]*UploadSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM upload_sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ExpiredSessions returns sessions idle since before the cutoff.
func (s *Store) ExpiredSessions(ctx context.Context, cutoff time.Time) ([]*UploadSession, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+` FROM upload_sessions WHERE updated_at < ? ORDER BY updated_at`,
		timestamp(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("expired sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

// CountSessions returns the number of active sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM upload_sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func collectSessions(rows *sql.Rows) ([]*UploadSession, error) {
	var sessions []*UploadSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(row rowScanner) (*UploadSession, error) {
	var (
		session   UploadSession
		folder    string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&session.Token,
		&session.ProjectID,
		&folder,
		&session.Name,
		&session.Length,
		&session.Offset,
		&session.StagingPath,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	session.Folder = Folder(folder)
	session.CreatedAt = parseTimestamp(createdAt)
	session.UpdatedAt = parseTimestamp(updatedAt)
	return &session, nil
}
