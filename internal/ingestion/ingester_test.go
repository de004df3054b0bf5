package ingestion_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"highlighter/internal/ingestion"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/media/ytdlp"
	"highlighter/internal/queue"
	"highlighter/internal/services"
	"highlighter/internal/testsupport"
)

func newJob(t *testing.T, lib *library.Library, kind queue.SourceKind, source string) *queue.Job {
	t.Helper()
	info, err := lib.Create(filepath.Base(source), library.Source{Kind: string(kind), Location: source})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return &queue.Job{ID: 1, VideoID: info.ID, SourceKind: kind, Source: source, Status: queue.StatusIngesting}
}

type recordingProgress struct {
	percents []float64
}

func (r *recordingProgress) UpdateProgress(_ context.Context, job *queue.Job) error {
	r.percents = append(r.percents, job.ProgressPercent)
	return nil
}

func TestIngestFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := library.New(cfg.Paths.VideosDir, logging.NewNop())

	tests := []struct {
		name       string
		source     string
		keepSource bool
	}{
		{"copies local file", filepath.Join(testsupport.BaseDir(cfg), "incoming", "match.mp4"), true},
		{"moves staged upload", filepath.Join(cfg.Paths.UploadsDir, "upload.mp4"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testsupport.WriteFile(t, tt.source, 2048)
			job := newJob(t, lib, queue.SourceFile, tt.source)
			ingester := ingestion.NewIngester(cfg, lib, logging.NewNop())

			if err := ingester.Prepare(context.Background(), job); err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			if err := ingester.Execute(context.Background(), job); err != nil {
				t.Fatalf("Execute: %v", err)
			}

			stat, err := os.Stat(lib.Path(job.VideoID, library.VideoFile))
			if err != nil || stat.Size() != 2048 {
				t.Fatalf("video not stored: %v", err)
			}
			_, err = os.Stat(tt.source)
			if tt.keepSource && err != nil {
				t.Fatalf("source should remain: %v", err)
			}
			if !tt.keepSource && !os.IsNotExist(err) {
				t.Fatalf("upload should be moved, stat err = %v", err)
			}
			info, err := lib.Get(job.VideoID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if info.Size != 2048 {
				t.Fatalf("info size = %d, want 2048", info.Size)
			}
			if job.ProgressPercent != 100 {
				t.Fatalf("progress = %v, want 100", job.ProgressPercent)
			}
		})
	}
}

func TestIngestLink(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := library.New(cfg.Paths.VideosDir, logging.NewNop())

	var gotURL string
	download := func(_ context.Context, _ string, src ytdlp.Source, outPath string, onProgress func(float64)) (string, error) {
		gotURL = src.URL
		for _, p := range []float64{3, 8, 12, 55, 100} {
			onProgress(p)
		}
		return "Grand final", os.WriteFile(outPath, []byte("video"), 0o644)
	}
	job := newJob(t, lib, queue.SourceLink, "https://www.twitch.tv/videos/123456")
	progress := &recordingProgress{}
	ingester := ingestion.NewIngesterWithDownloader(cfg, lib, logging.NewNop(), download).WithProgressStore(progress)

	if err := ingester.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotURL != "https://www.twitch.tv/videos/123456" {
		t.Fatalf("download url = %q", gotURL)
	}
	// 3 and 8 share the first 10% bucket.
	if want := []float64{3, 12, 55, 100}; !slices.Equal(progress.percents, want) {
		t.Fatalf("persisted progress = %v, want %v", progress.percents, want)
	}
	if job.Title != "Grand final" {
		t.Fatalf("job title = %q", job.Title)
	}
	info, err := lib.Get(job.VideoID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info.Title != "Grand final" || info.Source.Platform != ytdlp.PlatformTwitch {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestIngestFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := library.New(cfg.Paths.VideosDir, logging.NewNop())
	failingDownload := func(context.Context, string, ytdlp.Source, string, func(float64)) (string, error) {
		return "", errors.New("HTTP Error 404")
	}

	tests := []struct {
		name   string
		kind   queue.SourceKind
		source string
		marker error
		status queue.Status
	}{
		{"missing file", queue.SourceFile, "/nonexistent/video.mp4", services.ErrNotFound, queue.StatusReview},
		{"bad link", queue.SourceLink, "ftp://example.com/video", services.ErrValidation, queue.StatusReview},
		{"download fails", queue.SourceLink, "https://example.com/watch?v=1", services.ErrExternalTool, queue.StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newJob(t, lib, tt.kind, tt.source)
			ingester := ingestion.NewIngesterWithDownloader(cfg, lib, logging.NewNop(), failingDownload)
			err := ingester.Execute(context.Background(), job)
			if !errors.Is(err, tt.marker) {
				t.Fatalf("err = %v, want %v", err, tt.marker)
			}
			if got := queue.FailureStatus(err); got != tt.status {
				t.Fatalf("FailureStatus = %s, want %s", got, tt.status)
			}
		})
	}
}

func TestIngestRejectsRemovedVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := library.New(cfg.Paths.VideosDir, logging.NewNop())
	job := newJob(t, lib, queue.SourceFile, "/tmp/x.mp4")
	if err := lib.Remove(job.VideoID); err != nil {
		t.Fatal(err)
	}
	err := ingestion.NewIngester(cfg, lib, logging.NewNop()).Execute(context.Background(), job)
	if queue.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review routing, got %v", err)
	}
}
