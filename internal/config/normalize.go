package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeUpload()
	c.normalizeReconcile()
	c.normalizeTranscode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeUpload() {
	if c.Upload.SessionTTLHours <= 0 {
		c.Upload.SessionTTLHours = defaultSessionTTLHours
	}
	if c.Upload.SweepIntervalMin <= 0 {
		c.Upload.SweepIntervalMin = defaultSweepIntervalMinutes
	}
	if c.Upload.MaxChunkBytes <= 0 {
		c.Upload.MaxChunkBytes = defaultMaxChunkBytes
	}
}

func (c *Config) normalizeReconcile() {
	if c.Reconcile.IntervalMinutes <= 0 {
		c.Reconcile.IntervalMinutes = defaultReconcileIntervalMin
	}
}

func (c *Config) normalizeTranscode() {
	if c.Transcode.Workers <= 0 {
		c.Transcode.Workers = defaultTranscodeWorkers
	}
	if c.Transcode.MaxAttempts <= 0 {
		c.Transcode.MaxAttempts = defaultTranscodeMaxAttempts
	}
	if c.Transcode.BackoffInitialSeconds <= 0 {
		c.Transcode.BackoffInitialSeconds = defaultBackoffInitialSeconds
	}
	if c.Transcode.BackoffMaxSeconds < c.Transcode.BackoffInitialSeconds {
		c.Transcode.BackoffMaxSeconds = defaultBackoffMaxSeconds
	}
	if c.Transcode.PollIntervalSeconds <= 0 {
		c.Transcode.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if strings.TrimSpace(c.Transcode.FFmpegBinary) == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Transcode.FFprobeBinary) == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
