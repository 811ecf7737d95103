package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsFinalized counts uploads that completed and entered the library.
	UploadsFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shuttle_uploads_finalized_total",
		Help: "Uploads finalized into the library",
	})

	// UploadBytesReceived counts acknowledged chunk bytes.
	UploadBytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shuttle_upload_bytes_received_total",
		Help: "Chunk bytes durably written to staging",
	})

	// SessionsSwept counts expired upload sessions removed by the sweeper.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shuttle_upload_sessions_swept_total",
		Help: "Expired upload sessions removed",
	})

	// TranscodeAttempts counts conversion attempts by outcome.
	TranscodeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shuttle_transcode_attempts_total",
		Help: "Conversion attempts by outcome",
	}, []string{"outcome"})

	// TranscodeDuration observes wall-clock seconds per successful conversion.
	TranscodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shuttle_transcode_duration_seconds",
		Help:    "Wall-clock duration of successful conversions",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// ReconcilePasses counts completed reconcile passes.
	ReconcilePasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shuttle_reconcile_passes_total",
		Help: "Completed reconcile passes",
	})

	// FilesByStatus tracks the catalog's file count per conversion status.
	FilesByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shuttle_files_by_status",
		Help: "Cataloged files per conversion status",
	}, []string{"status"})
)

// Outcome labels for TranscodeAttempts.
const (
	OutcomeCompleted = "completed"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
)
