package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"highlighter/internal/queue"
	"highlighter/internal/services"
)

// ProgressStore persists the progress columns of a running job.
type ProgressStore interface {
	UpdateProgress(context.Context, *queue.Job) error
}

// SetProgress updates the progress columns of job in memory.
func SetProgress(job *queue.Job, label string, percent float64, message string) {
	job.ProgressStage = label
	job.ProgressPercent = min(max(percent, 0), 100)
	job.ProgressMessage = strings.TrimSpace(message)
}

// RequireFile returns a not-found stage error when path is missing or empty.
// Such jobs go to review because rerunning the stage will not create the file.
func RequireFile(stageName, path, hint string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return services.Wrap(services.ErrNotFound, stageName, "check input", hint, fmt.Errorf("%s does not exist", path))
	case err != nil:
		return services.Wrap(services.ErrTransient, stageName, "check input", "", err)
	case info.IsDir() || info.Size() == 0:
		return services.Wrap(services.ErrNotFound, stageName, "check input", hint, fmt.Errorf("%s is empty", path))
	}
	return nil
}

// CheckBinary reports a stage as unhealthy when binary cannot be resolved.
func CheckBinary(stageName, binary string) Health {
	if strings.TrimSpace(binary) == "" {
		return Unhealthy(stageName, "binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return Unhealthy(stageName, fmt.Sprintf("%s not found: %v", binary, err))
	}
	return Healthy(stageName)
}
