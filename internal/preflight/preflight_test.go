package preflight

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"highlighter/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		pass bool
	}{
		{"writable dir", dir, true},
		{"missing", filepath.Join(dir, "nope"), false},
		{"regular file", file, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckDirectoryAccess("test", tt.path)
			if result.Passed != tt.pass {
				t.Fatalf("Passed = %v, want %v (%s)", result.Passed, tt.pass, result.Detail)
			}
			if result.Detail == "" {
				t.Fatal("expected detail")
			}
		})
	}
}

func TestFreeSpace(t *testing.T) {
	dir := t.TempDir()
	free, err := FreeBytes(dir)
	if err != nil {
		t.Fatalf("FreeBytes: %v", err)
	}
	if free == 0 {
		t.Skip("temp filesystem reports no free space")
	}
	if err := EnsureFreeSpace(dir, 0); err != nil {
		t.Fatalf("disabled check failed: %v", err)
	}
	if err := EnsureFreeSpace(dir, 1); err != nil && free >= 1<<20 {
		t.Fatalf("1 MB floor failed with %d bytes free: %v", free, err)
	}
	huge := int64(math.MaxInt64 >> 20)
	if err := EnsureFreeSpace(dir, huge); !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("err = %v, want ErrInsufficientSpace", err)
	}
	if result := CheckFreeSpace("free", dir, huge); result.Passed {
		t.Fatal("huge floor should fail")
	}
	if _, err := FreeBytes(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected statfs error for a missing path")
	}
}

func TestRunAllAndSystemDeps(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.VideosDir = filepath.Join(base, "data", "videos")
	cfg.Paths.UploadsDir = filepath.Join(base, "data", "uploads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Library.MinFreeSpaceMB = 0
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), &cfg)
	if len(results) != 5 {
		t.Fatalf("RunAll returned %d results", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	cfg.Library.MinFreeSpaceMB = math.MaxInt64 >> 20
	if err := os.RemoveAll(cfg.Paths.UploadsDir); err != nil {
		t.Fatal(err)
	}
	results = RunAll(context.Background(), &cfg)
	if got := len(Failed(results)); got != 2 {
		t.Fatalf("Failed = %d results, want uploads dir and free space", got)
	}
	blocking := Blocking(results)
	if len(blocking) != 1 || blocking[0].Name != "Uploads directory" {
		t.Fatalf("Blocking = %+v, want only the uploads directory", blocking)
	}

	cfg.Media.FFmpegBinary = "definitely-missing-ffmpeg"
	cfg.Classifier.Script = filepath.Join(base, "missing.py")
	statuses := CheckSystemDeps(context.Background(), &cfg)
	byName := map[string]bool{}
	for _, s := range statuses {
		byName[s.Name] = s.Available
	}
	if byName["FFmpeg"] {
		t.Fatal("missing ffmpeg reported available")
	}
	if byName["Classifier"] {
		t.Fatal("classifier with missing script reported available")
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("nil config should yield no results")
	}
}
