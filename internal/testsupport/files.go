package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills path with size bytes of a repeating pattern. A size <= 0
// writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	mkdirFor(t, path)
	data := make([]byte, size)
	for i := range data {
		data[i] = 0x42
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteScript writes an executable /bin/sh script.
func WriteScript(t testing.TB, path, body string) {
	t.Helper()

	mkdirFor(t, path)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
}

// WriteScores writes a class-major classifier output file.
func WriteScores(t testing.TB, path string, classNames []string, scores [][]float64) {
	t.Helper()

	mkdirFor(t, path)
	data, err := json.Marshal(map[string]any{"classNames": classNames, "scores": scores})
	if err != nil {
		t.Fatalf("marshal scores: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write scores %s: %v", path, err)
	}
}

// Ramp returns n scores rising linearly from 0 toward 1, with a plateau of
// value over [peakStart, peakStart+peakLen).
func Ramp(n, peakStart, peakLen int, value float64) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = float64(i) / float64(n*10)
		if i >= peakStart && i < peakStart+peakLen {
			row[i] = value
		}
	}
	return row
}

func mkdirFor(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
}
