package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron"

	"shuttle/internal/catalog"
	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/metrics"
	"shuttle/internal/reconcile"
	"shuttle/internal/stream"
	"shuttle/internal/transcode"
	"shuttle/internal/upload"
)

// Daemon ties the ingestion, reconciliation, conversion, and delivery
// components together behind one HTTP server, and enforces single-instance
// execution with a lock file.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *catalog.Store
	receiver     *upload.Receiver
	reconciler   *reconcile.Reconciler
	orchestrator *transcode.Orchestrator
	streamer     *stream.Server

	lockPath string
	lock     *flock.Flock

	server    *http.Server
	scheduler *cron.Cron

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a daemon with initialized components. It wires the upload
// receiver and reconciler to nudge the conversion workers.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	orchestrator := transcode.New(store, cfg, nil, logger)
	d := &Daemon{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "daemon"),
		store:        store,
		receiver:     upload.NewReceiver(store, cfg, logger, upload.WithWake(orchestrator.Wake)),
		reconciler:   reconcile.New(store, cfg, logger, reconcile.WithWake(orchestrator.Wake)),
		orchestrator: orchestrator,
		streamer:     stream.NewServer(logger),
		lockPath:     filepath.Join(cfg.Paths.LogDir, "shuttled.lock"),
	}
	d.lock = flock.New(d.lockPath)
	return d, nil
}

// Start acquires the instance lock, recovers interrupted work, and launches
// the HTTP server, conversion workers, and periodic jobs. It returns once
// the listener is accepting connections.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shuttle daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	// Rows left in processing by a crash would otherwise sit forever.
	reset, err := d.store.ResetStuckProcessing(runCtx)
	if err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("reset stuck conversions: %w", err)
	}
	if reset > 0 {
		d.logger.Warn("interrupted conversions requeued", logging.Int64("count", reset))
	}

	listener, err := net.Listen("tcp", d.cfg.Paths.APIBind)
	if err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("bind %s: %w", d.cfg.Paths.APIBind, err)
	}
	d.server = &http.Server{
		Handler:           d.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	d.scheduler = cron.New()
	reconcileEvery := time.Duration(d.cfg.Reconcile.IntervalMinutes) * time.Minute
	if err := d.scheduler.AddFunc(fmt.Sprintf("@every %s", reconcileEvery), func() {
		if _, err := d.reconciler.ReconcileAll(context.Background()); err != nil {
			d.logger.Error("scheduled reconcile failed", logging.Error(err))
		}
	}); err != nil {
		listener.Close()
		d.releaseLock()
		cancel()
		return fmt.Errorf("schedule reconcile: %w", err)
	}
	sweepEvery := time.Duration(d.cfg.Upload.SweepIntervalMin) * time.Minute
	if err := d.scheduler.AddFunc(fmt.Sprintf("@every %s", sweepEvery), func() {
		if _, err := d.receiver.SweepExpired(context.Background(), time.Now()); err != nil {
			d.logger.Error("scheduled session sweep failed", logging.Error(err))
		}
	}); err != nil {
		listener.Close()
		d.releaseLock()
		cancel()
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	d.scheduler.Start()

	go func() {
		defer close(d.done)
		d.orchestrator.Run(runCtx)
	}()
	go func() {
		if err := d.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("http server stopped", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("shuttle daemon started",
		logging.String("bind", listener.Addr().String()),
		logging.String("lock", d.lockPath))
	return nil
}

// Addr returns the bound listener address, or empty before Start.
func (d *Daemon) Addr() string {
	if d.server == nil {
		return ""
	}
	return d.cfg.Paths.APIBind
}

// Stop drains the HTTP server, stops the workers and periodic jobs, and
// releases the instance lock.
func (d *Daemon) Stop(ctx context.Context) {
	if !d.running.Load() {
		return
	}
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("http shutdown incomplete", logging.Error(err))
		}
		cancel()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.done != nil {
		<-d.done
	}
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("shuttle daemon stopped")
}

// Close stops the daemon and closes the catalog store.
func (d *Daemon) Close() error {
	d.Stop(context.Background())
	return d.store.Close()
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("lock file not released", logging.Error(err))
	}
}

func (d *Daemon) updateStatusGauges(counts map[catalog.TranscodeStatus]int) {
	for _, status := range catalog.AllStatuses() {
		metrics.FilesByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
