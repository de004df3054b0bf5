package probing_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/probing"
	"highlighter/internal/queue"
	"highlighter/internal/services"
	"highlighter/internal/testsupport"
)

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "60/1"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "sample_rate": "48000", "channels": 2}
  ],
  "format": {"duration": "600.5", "size": "4096", "format_name": "mp4", "tags": {"title": "Finals day"}}
}`

const videoOnlyJSON = `{"streams": [{"index": 0, "codec_type": "video"}], "format": {"duration": "10"}}`

// thumbnailScript writes a file at the last argument and records the -ss value.
const thumbnailScript = `for a; do last="$a"; done
prev=""
for a; do
  if [ "$prev" = "-ss" ]; then echo "$a" > "$(dirname "$last")/.seek"; fi
  prev="$a"
done
printf png > "$last"`

func setup(t *testing.T, probeOutput string) (*probing.Prober, *library.Library, *queue.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t,
		testsupport.WithScript("ffprobe", "cat <<'JSON'\n"+probeOutput+"\nJSON"),
		testsupport.WithScript("ffmpeg", thumbnailScript),
	)
	lib := library.New(cfg.Paths.VideosDir, logging.NewNop())
	info, err := lib.Create("finals.mp4", library.Source{Kind: "file", Location: "/tmp/finals.mp4"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	testsupport.WriteFile(t, lib.Path(info.ID, library.VideoFile), 4096)
	job := &queue.Job{ID: 7, VideoID: info.ID, SourceKind: queue.SourceFile, Source: "/tmp/finals.mp4"}
	return probing.NewProber(cfg, lib, logging.NewNop()), lib, job
}

func TestProbeRecordsMetadataAndThumbnail(t *testing.T) {
	prober, lib, job := setup(t, probeJSON)
	if err := prober.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	info, err := lib.Get(job.VideoID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info.DurationSeconds != 600.5 {
		t.Fatalf("duration = %v, want 600.5", info.DurationSeconds)
	}
	if info.Title != "Finals day" || job.Title != "Finals day" {
		t.Fatalf("title not recorded: info=%q job=%q", info.Title, job.Title)
	}
	if !info.HasFile(library.ThumbnailFile) {
		t.Fatalf("thumbnail missing, files = %v", info.Files)
	}
	var meta map[string]any
	if err := json.Unmarshal(info.Metadata, &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	seek, err := os.ReadFile(filepath.Join(lib.Dir(job.VideoID), ".seek"))
	if err != nil {
		t.Fatalf("seek marker: %v", err)
	}
	if got := strings.TrimSpace(string(seek)); got != "120.100" {
		t.Fatalf("thumbnail seek = %s, want 120.100", got)
	}
}

func TestProbeFailures(t *testing.T) {
	t.Run("no audio stream", func(t *testing.T) {
		prober, _, job := setup(t, videoOnlyJSON)
		err := prober.Execute(context.Background(), job)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("err = %v, want validation", err)
		}
	})
	t.Run("missing video", func(t *testing.T) {
		prober, lib, job := setup(t, probeJSON)
		if err := os.Remove(lib.Path(job.VideoID, library.VideoFile)); err != nil {
			t.Fatal(err)
		}
		err := prober.Execute(context.Background(), job)
		if queue.FailureStatus(err) != queue.StatusReview {
			t.Fatalf("err = %v, want review routing", err)
		}
	})
	t.Run("ffprobe fails", func(t *testing.T) {
		cfg := testsupport.NewConfig(t, testsupport.WithScript("ffprobe", "echo 'moov atom not found' >&2; exit 1"))
		lib := library.New(cfg.Paths.VideosDir, logging.NewNop())
		info, err := lib.Create("bad.mp4", library.Source{Kind: "file"})
		if err != nil {
			t.Fatal(err)
		}
		testsupport.WriteFile(t, lib.Path(info.ID, library.VideoFile), 10)
		err = probing.NewProber(cfg, lib, logging.NewNop()).Execute(context.Background(), &queue.Job{VideoID: info.ID})
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("err = %v, want external tool", err)
		}
	})
}
