package upload

import (
	"context"
	"fmt"
	"os"
	"time"

	"shuttle/internal/logging"
	"shuttle/internal/metrics"
)

// SweepExpired removes sessions whose last activity predates the configured
// TTL, together with their staging files. It returns the number of sessions
// removed.
func (r *Receiver) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	ttl := time.Duration(r.cfg.Upload.SessionTTLHours) * time.Hour
	cutoff := now.Add(-ttl)
	expired, err := r.store.ExpiredSessions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	removed := 0
	for _, session := range expired {
		lock := r.sessionLock(session.Token)
		lock.Lock()
		if err := os.Remove(session.StagingPath); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("expired staging file not removed",
				logging.String(logging.FieldSession, session.Token),
				logging.Error(err))
		}
		if _, err := r.store.DeleteSession(ctx, session.Token); err != nil {
			r.logger.Warn("expired session row not removed",
				logging.String(logging.FieldSession, session.Token),
				logging.Error(err))
			lock.Unlock()
			continue
		}
		lock.Unlock()
		r.forgetLock(session.Token)
		removed++
		metrics.SessionsSwept.Inc()
		r.logger.Info("expired upload session swept",
			logging.String(logging.FieldSession, session.Token),
			logging.Int64("offset", session.Offset),
			logging.Int64("length", session.Length))
	}
	return removed, nil
}
