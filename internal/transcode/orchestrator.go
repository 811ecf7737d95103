package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"shuttle/internal/catalog"
	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/media"
	"shuttle/internal/metrics"
	"shuttle/internal/services"
	"shuttle/internal/services/ffmpeg"
)

// ErrFileNotFound is returned when retrying a file the catalog does not know.
var ErrFileNotFound = errors.New("file not found")

// Orchestrator drives pending videos through conversion with a bounded
// worker pool. Claims are atomic in the catalog, so workers never collide on
// the same file, and every attempt either completes the file, schedules a
// retry with backoff, or marks it failed once the attempt budget is spent.
type Orchestrator struct {
	store  *catalog.Store
	cfg    *config.Config
	client ffmpeg.Client
	logger *slog.Logger

	wakeCh chan struct{}
}

// New builds an Orchestrator. A nil client gets the default CLI wrapper
// bound to the configured binaries.
func New(store *catalog.Store, cfg *config.Config, client ffmpeg.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if client == nil {
		client = ffmpeg.NewCLI(
			ffmpeg.WithFFmpegBinary(cfg.Transcode.FFmpegBinary),
			ffmpeg.WithFFprobeBinary(cfg.Transcode.FFprobeBinary),
		)
	}
	return &Orchestrator{
		store:  store,
		cfg:    cfg,
		client: client,
		logger: logging.NewComponentLogger(logger, "transcode"),
		wakeCh: make(chan struct{}, 1),
	}
}

// Wake nudges idle workers to poll immediately. It never blocks; a pending
// nudge is as good as many.
func (o *Orchestrator) Wake() {
	select {
	case o.wakeCh <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is canceled, keeping the configured number of workers
// polling for pending videos.
func (o *Orchestrator) Run(ctx context.Context) error {
	workers := o.cfg.Transcode.Workers
	if workers < 1 {
		workers = 1
	}
	poll := time.Duration(o.cfg.Transcode.PollIntervalSeconds) * time.Second

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			o.workerLoop(ctx, worker, poll)
		}(i)
	}
	wg.Wait()
	return ctx.Err()
}

func (o *Orchestrator) workerLoop(ctx context.Context, worker int, poll time.Duration) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-o.wakeCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		for {
			processed, err := o.ProcessNext(ctx, time.Now())
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				o.logger.Error("conversion cycle failed",
					logging.Int("worker", worker),
					logging.Error(err))
				break
			}
			if !processed {
				break
			}
		}
		timer.Reset(poll)
	}
}

// ProcessNext claims and converts at most one pending video. It reports
// whether any work was picked up; DB or filesystem problems surface as the
// error, while a failed conversion is recorded on the file and not returned.
func (o *Orchestrator) ProcessNext(ctx context.Context, now time.Time) (bool, error) {
	record, err := o.store.NextPendingVideo(ctx, now)
	if err != nil {
		return false, fmt.Errorf("fetch pending video: %w", err)
	}
	if record == nil {
		return false, nil
	}
	if err := o.store.ClaimPending(ctx, record.ID); err != nil {
		if errors.Is(err, catalog.ErrAlreadyProcessing) {
			// Another worker got there first.
			return true, nil
		}
		return false, fmt.Errorf("claim file %d: %w", record.ID, err)
	}
	attempt := record.Attempts + 1

	ctx = services.WithFileID(ctx, record.ID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("conversion started",
		logging.String("path", record.Path),
		logging.Int("attempt", attempt),
		logging.Int("max_attempts", o.cfg.Transcode.MaxAttempts))

	started := time.Now()
	artifact, duration, err := o.convert(ctx, logger, record)
	if err != nil {
		o.recordFailure(ctx, logger, record.ID, attempt, err)
		return true, nil
	}

	if err := o.store.MarkCompleted(ctx, record.ID, artifact, duration); err != nil {
		return true, fmt.Errorf("mark file %d completed: %w", record.ID, err)
	}
	metrics.TranscodeAttempts.WithLabelValues(metrics.OutcomeCompleted).Inc()
	metrics.TranscodeDuration.Observe(time.Since(started).Seconds())
	logger.Info("conversion completed",
		logging.String("artifact", artifact),
		logging.Float64("duration_seconds", duration))
	return true, nil
}

// convert runs the external tool writing to a temporary name, renaming into
// place only on success so a partial artifact is never visible to delivery.
func (o *Orchestrator) convert(ctx context.Context, logger *slog.Logger, record *catalog.FileRecord) (string, float64, error) {
	artifact := media.DeliveryPath(record.Path)
	partial := artifact + ".partial"

	err := o.client.Transcode(ctx, record.Path, partial, func(update ffmpeg.ProgressUpdate) {
		if update.Done {
			return
		}
		logger.Debug("conversion progress",
			logging.Float64("out_time_seconds", update.OutTimeSeconds),
			logging.String("speed", update.Speed))
	})
	if err != nil {
		if removeErr := os.Remove(partial); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn("partial artifact not removed",
				logging.String("path", partial),
				logging.Error(removeErr))
		}
		return "", 0, err
	}
	if err := os.Rename(partial, artifact); err != nil {
		os.Remove(partial)
		return "", 0, fmt.Errorf("publish artifact: %w", err)
	}

	var duration float64
	if probe, err := o.client.Probe(ctx, artifact); err != nil {
		logger.Warn("artifact probe failed", logging.Error(err))
	} else {
		duration = probe.DurationSeconds
	}
	return artifact, duration, nil
}

func (o *Orchestrator) recordFailure(ctx context.Context, logger *slog.Logger, id int64, attempt int, cause error) {
	if attempt >= o.cfg.Transcode.MaxAttempts {
		if err := o.store.MarkFailed(ctx, id, cause.Error()); err != nil {
			logger.Error("failed state not recorded", logging.Error(err))
			return
		}
		metrics.TranscodeAttempts.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error("conversion failed permanently",
			logging.Int("attempt", attempt),
			logging.Error(cause))
		return
	}

	next := time.Now().Add(o.backoff(attempt))
	if err := o.store.ReleaseForRetry(ctx, id, next); err != nil {
		logger.Error("retry not scheduled", logging.Error(err))
		return
	}
	metrics.TranscodeAttempts.WithLabelValues(metrics.OutcomeRetried).Inc()
	logger.Warn("conversion attempt failed, retry scheduled",
		logging.Int("attempt", attempt),
		logging.String("next_attempt_at", next.UTC().Format(time.RFC3339)),
		logging.Error(cause))
}

// backoff doubles from the configured initial delay per completed attempt,
// capped at the configured maximum.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	initial := time.Duration(o.cfg.Transcode.BackoffInitialSeconds) * time.Second
	max := time.Duration(o.cfg.Transcode.BackoffMaxSeconds) * time.Second
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// RetryFailed puts a permanently failed file back in the queue with a fresh
// attempt budget and nudges the workers.
func (o *Orchestrator) RetryFailed(ctx context.Context, id int64) error {
	record, err := o.store.GetFile(ctx, id)
	if err != nil {
		return fmt.Errorf("look up file: %w", err)
	}
	if record == nil {
		return ErrFileNotFound
	}
	if err := o.store.ResetFailed(ctx, id); err != nil {
		return err
	}
	o.logger.Info("failed file requeued", logging.Int64(logging.FieldFileID, id))
	o.Wake()
	return nil
}
