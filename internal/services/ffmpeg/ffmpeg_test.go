package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

func TestNewCLIWithBinaryOverrides(t *testing.T) {
	cli := NewCLI(WithFFmpegBinary("/opt/ffmpeg"), WithFFprobeBinary("/opt/ffprobe"))
	if cli.ffmpeg != "/opt/ffmpeg" || cli.ffprobe != "/opt/ffprobe" {
		t.Fatalf("expected binary overrides, got %q %q", cli.ffmpeg, cli.ffprobe)
	}
}

func TestTranscodeRequiresPaths(t *testing.T) {
	cli := NewCLI()
	if err := cli.Transcode(context.Background(), "", "/out.mp4", nil); err == nil {
		t.Fatal("expected error when input path is empty")
	}
	if err := cli.Transcode(context.Background(), "/in.mov", "", nil); err == nil {
		t.Fatal("expected error when output path is empty")
	}
}

func TestTranscodeArgsIncludeFaststart(t *testing.T) {
	args := transcodeArgs("/in.mov", "/out.mp4")
	found := false
	for _, arg := range args {
		if arg == "+faststart" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected +faststart in args, got %v", args)
	}
	if args[len(args)-1] != "/out.mp4" {
		t.Fatalf("expected output path last, got %v", args)
	}
}

func TestTranscodeParsesProgress(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=progress")
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	var updates []ProgressUpdate
	cli := NewCLI()
	err := cli.Transcode(context.Background(), "/in.mov", "/out.mp4", func(u ProgressUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("Transcode returned error: %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("expected two progress events, got %d", len(updates))
	}
	if updates[0].OutTimeSeconds != 1.5 || updates[0].Done {
		t.Fatalf("unexpected first update: %+v", updates[0])
	}
	if !updates[1].Done {
		t.Fatalf("expected final update to be done: %+v", updates[1])
	}
}

func TestTranscodeSurfacesFailure(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=fail")
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	cli := NewCLI()
	if err := cli.Transcode(context.Background(), "/in.mov", "/out.mp4", nil); err == nil {
		t.Fatal("expected error from failing conversion")
	}
}

func TestProbeParsesStreams(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=probe")
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	cli := NewCLI()
	result, err := cli.Probe(context.Background(), "/in.mov")
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if !result.HasVideo || !result.HasAudio {
		t.Fatalf("expected video and audio streams: %+v", result)
	}
	if result.DurationSeconds != 42.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds)
	}
}

// TestHelperProcess emulates the external tools for the tests above.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "progress":
		fmt.Println("out_time_us=1500000")
		fmt.Println("speed=2.1x")
		fmt.Println("progress=continue")
		fmt.Println("out_time_us=3000000")
		fmt.Println("progress=end")
		os.Exit(0)
	case "fail":
		fmt.Println("Error while decoding stream")
		os.Exit(1)
	case "probe":
		fmt.Println(`{"streams":[{"codec_type":"video"},{"codec_type":"audio"}],"format":{"duration":"42.5"}}`)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}
