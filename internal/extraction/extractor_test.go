package extraction_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"highlighter/internal/extraction"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/preflight"
	"highlighter/internal/queue"
	"highlighter/internal/services"
	"highlighter/internal/testsupport"
)

// recordingFFmpeg writes its arguments next to the output file and creates it.
const recordingFFmpeg = `for a; do last="$a"; done
echo "$@" > "$(dirname "$last")/.args"
printf RIFF > "$last"`

func setup(t *testing.T, script string) (*extraction.Extractor, *library.Library, *queue.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithScript("ffmpeg", script))
	lib := library.New(cfg.Paths.VideosDir, logging.NewNop())
	info, err := lib.Create("clip.mp4", library.Source{Kind: "file"})
	if err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, lib.Path(info.ID, library.VideoFile), 100)
	return extraction.NewExtractor(cfg, lib, logging.NewNop()), lib, &queue.Job{ID: 3, VideoID: info.ID}
}

func TestExtractWritesAudio(t *testing.T) {
	extractor, lib, job := setup(t, recordingFFmpeg)
	if err := extractor.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := os.Stat(lib.Path(job.VideoID, library.AudioFile)); err != nil {
		t.Fatalf("audio missing: %v", err)
	}
	args, err := os.ReadFile(lib.Path(job.VideoID, ".args"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"-acodec pcm_s16le", "-ac 1", "-ar 16000"} {
		if !strings.Contains(string(args), want) {
			t.Fatalf("ffmpeg args %q missing %q", args, want)
		}
	}
	if job.ProgressPercent != 100 {
		t.Fatalf("progress = %v", job.ProgressPercent)
	}
}

func TestExtractFailures(t *testing.T) {
	t.Run("ffmpeg exits non-zero", func(t *testing.T) {
		extractor, lib, job := setup(t, "echo 'Stream map matches no streams' >&2; exit 1")
		err := extractor.Execute(context.Background(), job)
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("err = %v, want external tool", err)
		}
		if _, statErr := os.Stat(lib.Path(job.VideoID, library.AudioFile)); !os.IsNotExist(statErr) {
			t.Fatal("partial audio should be removed")
		}
	})
	t.Run("video missing", func(t *testing.T) {
		extractor, lib, job := setup(t, recordingFFmpeg)
		_ = os.Remove(lib.Path(job.VideoID, library.VideoFile))
		if err := extractor.Execute(context.Background(), job); queue.FailureStatus(err) != queue.StatusReview {
			t.Fatalf("err = %v, want review routing", err)
		}
	})
	t.Run("disk below free space floor", func(t *testing.T) {
		cfg := testsupport.NewConfig(t, testsupport.WithScript("ffmpeg", recordingFFmpeg))
		cfg.Library.MinFreeSpaceMB = 1 << 40
		lib := library.New(cfg.Paths.VideosDir, logging.NewNop())
		info, err := lib.Create("clip.mp4", library.Source{Kind: "file"})
		if err != nil {
			t.Fatal(err)
		}
		testsupport.WriteFile(t, lib.Path(info.ID, library.VideoFile), 100)

		err = extraction.NewExtractor(cfg, lib, logging.NewNop()).Execute(context.Background(), &queue.Job{ID: 4, VideoID: info.ID})
		if !errors.Is(err, preflight.ErrInsufficientSpace) {
			t.Fatalf("err = %v, want insufficient space", err)
		}
		if queue.FailureStatus(err) != queue.StatusFailed {
			t.Fatalf("FailureStatus = %s, want failed", queue.FailureStatus(err))
		}
	})
}
