package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"highlighter/internal/config"
	"highlighter/internal/deps"
)

// ErrInsufficientSpace is returned when a filesystem is below the configured floor.
var ErrInsufficientSpace = errors.New("insufficient free space")

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FreeBytes returns the bytes available to unprivileged users on the
// filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// EnsureFreeSpace fails with ErrInsufficientSpace when the filesystem holding
// path has less than minMB megabytes available. A non-positive minMB disables
// the check.
func EnsureFreeSpace(path string, minMB int64) error {
	if minMB <= 0 {
		return nil
	}
	free, err := FreeBytes(path)
	if err != nil {
		return err
	}
	if need := uint64(minMB) << 20; free < need {
		return fmt.Errorf("%w: %d MB available, %d MB required", ErrInsufficientSpace, free>>20, minMB)
	}
	return nil
}

// CheckFreeSpace reports EnsureFreeSpace as a Result.
func CheckFreeSpace(name, path string, minMB int64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error(), Advisory: true}
	}
	if err := EnsureFreeSpace(path, minMB); err != nil {
		return Result{Name: name, Detail: err.Error(), Advisory: true}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d MB available", free>>20), Advisory: true}
}

// CheckSystemDeps evaluates the external programs the pipeline runs. Both
// the daemon status endpoint and the CLI use this list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	command, _ := cfg.ClassifierCommand()
	var scriptFiles []string
	if cfg.Classifier.Script != "" {
		scriptFiles = []string{cfg.Classifier.Script}
	}
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "Required for audio extraction and thumbnails",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "Required for media inspection",
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Media.YtDlpBinary,
			Description: "Required for ingesting links",
			Optional:    true,
		},
		{
			Name:        "Classifier",
			Command:     command,
			Description: "Runs the sound-event classifier",
			Files:       scriptFiles,
		},
	})
}
