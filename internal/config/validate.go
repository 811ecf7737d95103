package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.StagingDir == c.Paths.LibraryDir {
		return errors.New("paths.staging_dir and paths.library_dir must be distinct directories")
	}
	if strings.HasPrefix(c.Paths.StagingDir+"/", c.Paths.LibraryDir+"/") {
		return errors.New("paths.staging_dir must live outside paths.library_dir")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxChunkBytes > int64(1)<<31 {
		return fmt.Errorf("upload.max_chunk_bytes %d exceeds the 2 GiB chunk ceiling", c.Upload.MaxChunkBytes)
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.Workers > 16 {
		return fmt.Errorf("transcode.workers %d is unreasonably high; conversions are CPU-bound", c.Transcode.Workers)
	}
	if c.Transcode.MaxAttempts > 10 {
		return fmt.Errorf("transcode.max_attempts %d exceeds the supported ceiling of 10", c.Transcode.MaxAttempts)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
