package stage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"highlighter/internal/queue"
	"highlighter/internal/services"
)

func TestSetProgressClamps(t *testing.T) {
	job := &queue.Job{}
	SetProgress(job, "Probing", 140, "  reading streams ")
	if job.ProgressPercent != 100 {
		t.Fatalf("percent = %v, want 100", job.ProgressPercent)
	}
	if job.ProgressMessage != "reading streams" || job.ProgressStage != "Probing" {
		t.Fatalf("unexpected progress %+v", job)
	}
	SetProgress(job, "Probing", -3, "")
	if job.ProgressPercent != 0 {
		t.Fatalf("percent = %v, want 0", job.ProgressPercent)
	}
}

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(full, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"present", full, false},
		{"missing", filepath.Join(dir, "nope.mp4"), true},
		{"empty", empty, true},
		{"directory", dir, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireFile("probe", tt.path, "re-add the video")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, services.ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				if queue.FailureStatus(err) != queue.StatusReview {
					t.Fatalf("missing input should route to review")
				}
			}
		})
	}
}

func TestCheckBinary(t *testing.T) {
	if h := CheckBinary("extract", ""); h.Ready {
		t.Fatal("empty binary should be unhealthy")
	}
	if h := CheckBinary("extract", "definitely-not-a-real-binary-xyz"); h.Ready || h.Detail == "" {
		t.Fatalf("unexpected health %+v", h)
	}
	if h := CheckBinary("extract", "sh"); !h.Ready {
		t.Fatalf("sh should resolve: %+v", h)
	}
}
