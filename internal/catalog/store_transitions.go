package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NextPendingVideo returns the oldest claimable transcode candidate: a pending
// row whose backoff window has elapsed. Only video files ever carry pending,
// so no media-type filter is needed. No candidate yields nil.
func (s *Store) NextPendingVideo(ctx context.Context, now time.Time) (*FileRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+fileColumns+` FROM files
         WHERE transcode_status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
         ORDER BY id LIMIT 1`,
		StatusPending,
		timestamp(now),
	)
	record, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return record, nil
}

// ClaimPending transitions pending -> processing and increments the attempt
// counter in one statement, so two workers can never both claim a file.
// Returns ErrAlreadyProcessing when the row is in any other state.
func (s *Store) ClaimPending(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE files
         SET transcode_status = ?, attempts = attempts + 1, next_attempt_at = NULL,
             last_error = NULL, updated_at = ?
         WHERE id = ? AND transcode_status = ?`,
		StatusProcessing,
		timestamp(time.Now()),
		id,
		StatusPending,
	)
	if err != nil {
		return fmt.Errorf("claim pending: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyProcessing
	}
	return nil
}

// MarkCompleted records a successful conversion: processing -> completed with
// the artifact path and extracted duration.
func (s *Store) MarkCompleted(ctx context.Context, id int64, transcodedPath string, durationSeconds float64) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE files
         SET transcode_status = ?, transcoded_path = ?, duration_seconds = ?,
             last_error = NULL, next_attempt_at = NULL, updated_at = ?
         WHERE id = ? AND transcode_status = ?`,
		StatusCompleted,
		transcodedPath,
		nullableFloat(durationSeconds),
		timestamp(time.Now()),
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return requireTransition(res)
}

// ReleaseForRetry returns a processing file to pending with a scheduled next
// attempt. The error message is not retained; last_error only survives on
// terminal failure.
func (s *Store) ReleaseForRetry(ctx context.Context, id int64, nextAttemptAt time.Time) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE files
         SET transcode_status = ?, next_attempt_at = ?, last_error = NULL, updated_at = ?
         WHERE id = ? AND transcode_status = ?`,
		StatusPending,
		timestamp(nextAttemptAt),
		timestamp(time.Now()),
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("release for retry: %w", err)
	}
	return requireTransition(res)
}

// MarkFailed records a terminal conversion failure with its error message.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE files
         SET transcode_status = ?, last_error = ?, next_attempt_at = NULL, updated_at = ?
         WHERE id = ? AND transcode_status = ?`,
		StatusFailed,
		message,
		timestamp(time.Now()),
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return requireTransition(res)
}

// ResetFailed is the operator-triggered retry: failed -> pending with the
// attempt counter cleared. Returns ErrNotInFailedState for any other state.
func (s *Store) ResetFailed(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE files
         SET transcode_status = ?, attempts = 0, last_error = NULL,
             next_attempt_at = NULL, updated_at = ?
         WHERE id = ? AND transcode_status = ?`,
		StatusPending,
		timestamp(time.Now()),
		id,
		StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotInFailedState
	}
	return nil
}

// ResetForTranscode re-queues a file whose content changed: any state back to
// pending with attempts cleared and the stale artifact reference dropped.
func (s *Store) ResetForTranscode(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE files
         SET transcode_status = ?, attempts = 0, transcoded_path = NULL,
             duration_seconds = NULL, last_error = NULL, next_attempt_at = NULL,
             updated_at = ?
         WHERE id = ?`,
		StatusPending,
		timestamp(time.Now()),
		id,
	); err != nil {
		return fmt.Errorf("reset for transcode: %w", err)
	}
	return nil
}

// ResetStuckProcessing returns rows left in processing by a crashed daemon to
// pending. Runs at startup, before any worker starts.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE files SET transcode_status = ?, updated_at = ? WHERE transcode_status = ?`,
		StatusPending,
		timestamp(time.Now()),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck processing: %w", err)
	}
	return res.RowsAffected()
}

func requireTransition(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotProcessing
	}
	return nil
}
