package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shuttle/internal/config"
)

func TestDefaultValues(t *testing.T) {
	cfg := config.Default()
	if cfg.Upload.SessionTTLHours != 24 {
		t.Fatalf("unexpected session ttl: %d", cfg.Upload.SessionTTLHours)
	}
	if cfg.Transcode.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Transcode.MaxAttempts)
	}
	if cfg.Transcode.Workers != 2 {
		t.Fatalf("unexpected workers: %d", cfg.Transcode.Workers)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config file, got exists for %s", path)
	}
	if cfg.Paths.APIBind == "" {
		t.Fatal("expected default api bind")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`staging_dir = "` + filepath.Join(dir, "staging") + `"`,
		`library_dir = "` + filepath.Join(dir, "library") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[transcode]",
		"workers = 0",
		"[logging]",
		`level = "DEBUG"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Transcode.Workers != 2 {
		t.Fatalf("expected zero workers to normalize to default, got %d", cfg.Transcode.Workers)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsNestedStaging(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LibraryDir = "/srv/media"
	cfg.Paths.StagingDir = "/srv/media/staging"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for staging inside library")
	}
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "logfmt"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown log format")
	}
}

func TestEnsureDirectoriesCreatesStaging(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if _, err := os.Stat(cfg.UploadStagingDir()); err != nil {
		t.Fatalf("expected upload staging dir: %v", err)
	}
}
