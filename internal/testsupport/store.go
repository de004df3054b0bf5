package testsupport

import (
	"context"
	"testing"

	"highlighter/internal/config"
	"highlighter/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewJob enqueues a file job for tests.
func NewJob(t testing.TB, store *queue.Store, videoID, source string) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), videoID, queue.SourceFile, source, "")
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
