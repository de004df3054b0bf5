package classifier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"highlighter/internal/highlights"
	"highlighter/internal/testsupport"
)

func TestDetectOrientation(t *testing.T) {
	tests := []struct {
		name    string
		file    ScoresFile
		want    Orientation
		wantErr bool
	}{
		{
			name: "class major",
			file: ScoresFile{ClassNames: []string{"Shout", "Laughter"}, Scores: [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}},
			want: ClassMajor,
		},
		{
			name: "frame major",
			file: ScoresFile{ClassNames: []string{"Shout", "Laughter"}, Scores: [][]float64{{0.1, 0.4}, {0.2, 0.5}, {0.3, 0.6}}},
			want: FrameMajor,
		},
		{
			name: "explicit wins over shape",
			file: ScoresFile{ClassNames: []string{"A", "B"}, Scores: [][]float64{{1, 2}, {3, 4}}, Orientation: FrameMajor},
			want: FrameMajor,
		},
		{
			name:    "ragged",
			file:    ScoresFile{ClassNames: []string{"A", "B"}, Scores: [][]float64{{1, 2}, {3}, {4, 5}}},
			wantErr: true,
		},
		{
			name:    "unknown orientation",
			file:    ScoresFile{ClassNames: []string{"A"}, Scores: [][]float64{{1}}, Orientation: "diagonal"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.file.DetectOrientation()
			if tt.wantErr {
				if !errors.Is(err, highlights.ErrInvalidMatrix) {
					t.Fatalf("expected ErrInvalidMatrix, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("DetectOrientation = %s, %v; want %s", got, err, tt.want)
			}
		})
	}
}

func TestFrameMajorMatrixIsTransposed(t *testing.T) {
	file := ScoresFile{ClassNames: []string{"Shout", "Laughter"}, Scores: [][]float64{{0.1, 0.4}, {0.2, 0.5}, {0.3, 0.6}}}
	m, err := file.Matrix()
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if m.FrameCount() != 3 || m.ClassCount() != 2 {
		t.Fatalf("shape = %d classes x %d frames", m.ClassCount(), m.FrameCount())
	}
	if v, _ := m.ScoreAt(1, 2); v != 0.6 {
		t.Fatalf("ScoreAt(1,2) = %v", v)
	}
}

func TestLoadDirSingleFile(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteScores(t, filepath.Join(dir, ScoresFileName), []string{"Shout"}, [][]float64{{0.1, 0.9}})
	// Chunks are ignored when the single file exists.
	testsupport.WriteScores(t, filepath.Join(dir, "scores_data_000.json"), []string{"Other"}, [][]float64{{1}})

	m, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if m.FrameCount() != 2 {
		t.Fatalf("frames = %d", m.FrameCount())
	}
	if _, ok := m.ClassIndex("Shout"); !ok {
		t.Fatal("expected Shout class")
	}
}

func TestLoadDirConcatenatesChunks(t *testing.T) {
	dir := t.TempDir()
	classes := []string{"Shout", "Laughter"}
	testsupport.WriteScores(t, filepath.Join(dir, "scores_data_001.json"), classes, [][]float64{{0.3}, {0.6}})
	testsupport.WriteScores(t, filepath.Join(dir, "scores_data_000.json"), classes, [][]float64{{0.1, 0.2}, {0.4, 0.5}})

	m, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	row, _ := m.Row(1)
	want := []float64{0.4, 0.5, 0.6}
	if len(row) != len(want) {
		t.Fatalf("row = %v", row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("row = %v, want %v", row, want)
		}
	}
}

func TestLoadDirOrdersChunksByNumber(t *testing.T) {
	dir := t.TempDir()
	classes := []string{"Shout"}
	for n := 1; n <= 11; n++ {
		testsupport.WriteScores(t, filepath.Join(dir, fmt.Sprintf("scores_data_%d.json", n)), classes, [][]float64{{float64(n)}})
	}

	m, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	row, _ := m.Row(0)
	if len(row) != 11 {
		t.Fatalf("frames = %d, want 11", len(row))
	}
	for i, got := range row {
		if got != float64(i+1) {
			t.Fatalf("frame %d holds chunk %v, want %d (row %v)", i, got, i+1, row)
		}
	}
}

func TestFilesRejectsDuplicateChunkNumbers(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteScores(t, filepath.Join(dir, "scores_data_1.json"), []string{"A"}, [][]float64{{1}})
	testsupport.WriteScores(t, filepath.Join(dir, "scores_data_001.json"), []string{"A"}, [][]float64{{2}})

	if _, err := Files(dir); !errors.Is(err, highlights.ErrInvalidMatrix) {
		t.Fatalf("expected ErrInvalidMatrix, got %v", err)
	}
}

func TestLoadDirRejectsMismatchedChunks(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteScores(t, filepath.Join(dir, "scores_data_000.json"), []string{"A", "B"}, [][]float64{{1}, {2}})
	testsupport.WriteScores(t, filepath.Join(dir, "scores_data_001.json"), []string{"B", "A"}, [][]float64{{1}, {2}})

	if _, err := LoadDir(dir); !errors.Is(err, highlights.ErrInvalidMatrix) {
		t.Fatalf("expected ErrInvalidMatrix, got %v", err)
	}
}

func TestLoadDirErrors(t *testing.T) {
	empty := t.TempDir()
	if _, err := LoadDir(empty); !errors.Is(err, ErrNoScores) {
		t.Fatalf("expected ErrNoScores, got %v", err)
	}

	broken := t.TempDir()
	if err := os.WriteFile(filepath.Join(broken, ScoresFileName), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(broken); !errors.Is(err, highlights.ErrInvalidMatrix) {
		t.Fatalf("expected ErrInvalidMatrix, got %v", err)
	}
}

func TestIsScoresFile(t *testing.T) {
	tests := map[string]bool{
		"scores_data.json":     true,
		"scores_data_001.json": true,
		"scores_data_x.json":   false,
		"highlights.json":      false,
		"scores_data.json.tmp": false,
	}
	for name, want := range tests {
		if got := IsScoresFile(name); got != want {
			t.Errorf("IsScoresFile(%q) = %v, want %v", name, got, want)
		}
	}
}
