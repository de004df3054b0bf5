package preflight

import (
	"context"

	"highlighter/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
	// Advisory results are reported but do not stop the daemon from starting.
	Advisory bool `json:"advisory,omitempty"`
}

// RunAll checks the directories the daemon writes to and the free space
// left for uploads.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Videos directory", cfg.Paths.VideosDir),
		CheckDirectoryAccess("Uploads directory", cfg.Paths.UploadsDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Free space", cfg.Paths.VideosDir, cfg.Library.MinFreeSpaceMB),
	}
}

// Blocking returns the failed results that are not advisory.
func Blocking(results []Result) []Result {
	var blocking []Result
	for _, r := range Failed(results) {
		if !r.Advisory {
			blocking = append(blocking, r)
		}
	}
	return blocking
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
