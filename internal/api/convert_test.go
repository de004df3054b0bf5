package api

import (
	"testing"
	"time"

	"highlighter/internal/library"
	"highlighter/internal/queue"
	"highlighter/internal/stage"
	"highlighter/internal/workflow"
)

func TestFromInfoURLs(t *testing.T) {
	info := library.Info{
		ID:        "2024-03-01-1709251200000-0f8fad5b-d9cb-469f-a165-70867728950e",
		Name:      "clip.mp4",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Files:     []string{library.VideoFile, library.ThumbnailFile, "scores_data_000.json"},
	}

	video := FromInfo(info, nil)
	if video.VideoURL != "/uploads/"+info.ID+"/video.mp4" {
		t.Fatalf("VideoURL = %q", video.VideoURL)
	}
	if video.ThumbnailURL != "/uploads/"+info.ID+"/thumbnail.png" {
		t.Fatalf("ThumbnailURL = %q", video.ThumbnailURL)
	}
	if !video.HasScores || video.HasHighlights || video.Job != nil {
		t.Fatalf("video = %+v", video)
	}
	if video.CreatedAt != "2024-03-01T00:00:00.000Z" {
		t.Fatalf("CreatedAt = %q", video.CreatedAt)
	}

	bare := FromInfo(library.Info{ID: info.ID}, &queue.Job{ID: 3, Status: queue.StatusPending, Source: "/in/a.mp4"})
	if bare.VideoURL != "" || bare.ThumbnailURL != "" {
		t.Fatalf("URLs set without files: %+v", bare)
	}
	if bare.Job == nil || bare.Job.Title != "/in/a.mp4" {
		t.Fatalf("Job = %+v, want title falling back to source", bare.Job)
	}
	if bare.Files == nil {
		t.Fatalf("Files is nil, want empty list")
	}
}

func TestFromStatusSummarySortsStages(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:    true,
		QueueStats: map[queue.Status]int{queue.StatusPending: 2},
		StageHealth: map[string]stage.Health{
			"probe":  stage.Healthy("probe"),
			"ingest": stage.Unhealthy("ingest", "yt-dlp missing"),
		},
	}

	status := FromStatusSummary(summary)
	if len(status.StageHealth) != 2 || status.StageHealth[0].Name != "ingest" || status.StageHealth[0].Ready {
		t.Fatalf("StageHealth = %+v", status.StageHealth)
	}
	if status.QueueStats["pending"] != 2 || status.QueueStats["failed"] != 0 {
		t.Fatalf("QueueStats = %v", status.QueueStats)
	}
	if _, ok := status.QueueStats["completed"]; !ok {
		t.Fatalf("QueueStats missing zero entries: %v", status.QueueStats)
	}
}
