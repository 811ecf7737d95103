package testsupport

import (
	"path/filepath"
	"testing"

	"shuttle/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Transcode.PollIntervalSeconds = 1
	cfgVal.Transcode.BackoffInitialSeconds = 1
	cfgVal.Transcode.BackoffMaxSeconds = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithMaxChunkBytes overrides the chunk size limit on the test config.
func WithMaxChunkBytes(limit int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.MaxChunkBytes = limit
	}
}

// WithSessionTTLHours overrides the upload session TTL on the test config.
func WithSessionTTLHours(hours int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.SessionTTLHours = hours
	}
}

// WithMaxAttempts overrides the conversion retry budget on the test config.
func WithMaxAttempts(attempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcode.MaxAttempts = attempts
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
