package config

const (
	defaultStagingDir            = "~/.local/share/shuttle/staging"
	defaultLibraryDir            = "~/shuttle-library"
	defaultLogDir                = "~/.local/share/shuttle/logs"
	defaultAPIBind               = "127.0.0.1:7519"
	defaultSessionTTLHours       = 24
	defaultSweepIntervalMinutes  = 30
	defaultMaxChunkBytes         = int64(32) << 20
	defaultReconcileIntervalMin  = 5
	defaultTranscodeWorkers      = 2
	defaultTranscodeMaxAttempts  = 3
	defaultBackoffInitialSeconds = 30
	defaultBackoffMaxSeconds     = 600
	defaultPollIntervalSeconds   = 10
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Upload: Upload{
			SessionTTLHours:  defaultSessionTTLHours,
			SweepIntervalMin: defaultSweepIntervalMinutes,
			MaxChunkBytes:    defaultMaxChunkBytes,
		},
		Reconcile: Reconcile{
			IntervalMinutes: defaultReconcileIntervalMin,
		},
		Transcode: Transcode{
			Workers:               defaultTranscodeWorkers,
			MaxAttempts:           defaultTranscodeMaxAttempts,
			BackoffInitialSeconds: defaultBackoffInitialSeconds,
			BackoffMaxSeconds:     defaultBackoffMaxSeconds,
			PollIntervalSeconds:   defaultPollIntervalSeconds,
			FFmpegBinary:          defaultFFmpegBinary,
			FFprobeBinary:         defaultFFprobeBinary,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
