package queue_test

import (
	"errors"
	"fmt"
	"testing"

	"highlighter/internal/queue"
	"highlighter/internal/services"
)

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want queue.Status
	}{
		{"nil", nil, queue.StatusFailed},
		{"plain", errors.New("boom"), queue.StatusFailed},
		{"validation", services.Wrap(services.ErrValidation, "highlighting", "select", "", nil), queue.StatusReview},
		{"configuration", services.Wrap(services.ErrConfiguration, "classifying", "", "", nil), queue.StatusReview},
		{"not found", services.Wrap(services.ErrNotFound, "ingesting", "", "", nil), queue.StatusReview},
		{"external tool", services.Wrap(services.ErrExternalTool, "extracting", "ffmpeg", "", errors.New("exit 1")), queue.StatusFailed},
		{"wrapped again", fmt.Errorf("stage: %w", services.Wrap(services.ErrValidation, "probing", "", "", nil)), queue.StatusReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := queue.FailureStatus(tt.err); got != tt.want {
				t.Fatalf("FailureStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if status, err := queue.ParseStatus(" Review "); err != nil || status != queue.StatusReview {
		t.Fatalf("ParseStatus = %s, %v", status, err)
	}
	if _, err := queue.ParseStatus("ripping"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	for _, status := range queue.AllStatuses() {
		if status.IsProcessing() && status.IsTerminal() {
			t.Fatalf("%s cannot be both processing and terminal", status)
		}
	}
}
