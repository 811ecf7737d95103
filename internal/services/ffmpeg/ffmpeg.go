// Package ffmpeg wraps the ffmpeg and ffprobe command-line tools used to
// produce delivery artifacts and inspect media files.
package ffmpeg

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// ProgressUpdate captures conversion progress events.
type ProgressUpdate struct {
	OutTimeSeconds float64
	Speed          string
	Done           bool
}

// ProbeResult summarizes the streams of a media file.
type ProbeResult struct {
	DurationSeconds float64
	HasVideo        bool
	HasAudio        bool
}

// Client defines conversion and inspection behaviour.
type Client interface {
	Transcode(ctx context.Context, inputPath, outputPath string, progress func(ProgressUpdate)) error
	Probe(ctx context.Context, path string) (ProbeResult, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithFFmpegBinary overrides the default ffmpeg binary name.
func WithFFmpegBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.ffmpeg = binary
		}
	}
}

// WithFFprobeBinary overrides the default ffprobe binary name.
func WithFFprobeBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.ffprobe = binary
		}
	}
}

// CLI wraps the ffmpeg command-line tools.
type CLI struct {
	ffmpeg  string
	ffprobe string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{ffmpeg: "ffmpeg", ffprobe: "ffprobe"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Transcode converts inputPath into an H.264/AAC MP4 at outputPath suitable
// for progressive delivery. Progress events are parsed from ffmpeg's
// machine-readable -progress stream.
func (c *CLI) Transcode(ctx context.Context, inputPath, outputPath string, progress func(ProgressUpdate)) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}

	args := transcodeArgs(inputPath, outputPath)
	cmd := commandContext(ctx, c.ffmpeg, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	update := ProgressUpdate{}
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				update.OutTimeSeconds = float64(us) / 1e6
			}
		case "speed":
			update.Speed = strings.TrimSpace(value)
		case "progress":
			update.Done = value == "end"
			if progress != nil {
				progress(update)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ffmpeg output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg transcode failed: %w", err)
	}
	return nil
}

func transcodeArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner", "-nostats", "-y",
		"-i", inputPath,
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac", "-b:a", "160k",
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		outputPath,
	}
}

// Probe inspects a media file with ffprobe.
func (c *CLI) Probe(ctx context.Context, path string) (ProbeResult, error) {
	if strings.TrimSpace(path) == "" {
		return ProbeResult{}, errors.New("probe path required")
	}

	cmd := commandContext(ctx, c.ffprobe,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var payload struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &payload); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}

	result := ProbeResult{DurationSeconds: parseFloat(payload.Format.Duration)}
	for _, stream := range payload.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "video":
			result.HasVideo = true
		case "audio":
			result.HasAudio = true
		}
	}
	return result, nil
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return parsed
}

var _ Client = (*CLI)(nil)
