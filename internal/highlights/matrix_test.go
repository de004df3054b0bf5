package highlights_test

import (
	"errors"
	"testing"

	"highlighter/internal/highlights"
)

func mustMatrix(t *testing.T, names []string, scores [][]float64) *highlights.Matrix {
	t.Helper()
	m, err := highlights.NewMatrix(names, scores)
	if err != nil {
		t.Fatalf("NewMatrix failed: %v", err)
	}
	return m
}

func TestNewMatrixValidation(t *testing.T) {
	cases := []struct {
		name   string
		names  []string
		scores [][]float64
	}{
		{"row count mismatch", []string{"a", "b"}, [][]float64{{1}}},
		{"ragged rows", []string{"a", "b"}, [][]float64{{1, 2}, {1}}},
		{"duplicate names", []string{"a", "a"}, [][]float64{{1}, {2}}},
		{"empty name", []string{" "}, [][]float64{{1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := highlights.NewMatrix(tc.names, tc.scores); !errors.Is(err, highlights.ErrInvalidMatrix) {
				t.Fatalf("expected ErrInvalidMatrix, got %v", err)
			}
		})
	}
}

func TestEmptyMatrixHasNoFrames(t *testing.T) {
	m := mustMatrix(t, nil, nil)
	if m.FrameCount() != 0 || m.ClassCount() != 0 {
		t.Fatalf("expected empty matrix, got classes=%d frames=%d", m.ClassCount(), m.FrameCount())
	}
}

func TestNewMatrixCopiesInput(t *testing.T) {
	names := []string{"Shout"}
	scores := [][]float64{{0.1, 0.2}}
	m := mustMatrix(t, names, scores)
	scores[0][0] = 9
	names[0] = "Changed"

	got, err := m.ScoreAt(0, 0)
	if err != nil {
		t.Fatalf("ScoreAt failed: %v", err)
	}
	if got != 0.1 {
		t.Fatalf("expected matrix to keep its own copy, got %v", got)
	}
	if _, ok := m.ClassIndex("Shout"); !ok {
		t.Fatal("expected Shout to remain indexed")
	}
}

func TestScoreAtBounds(t *testing.T) {
	m := mustMatrix(t, []string{"a"}, [][]float64{{0.5, 0.6}})
	for _, idx := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 2}} {
		if _, err := m.ScoreAt(idx[0], idx[1]); !errors.Is(err, highlights.ErrIndexOutOfRange) {
			t.Fatalf("ScoreAt(%d,%d): expected ErrIndexOutOfRange, got %v", idx[0], idx[1], err)
		}
	}
	if v, err := m.ScoreAt(0, 1); err != nil || v != 0.6 {
		t.Fatalf("ScoreAt(0,1) = %v, %v", v, err)
	}
}

func TestFrameMajorIsTransposed(t *testing.T) {
	m, err := highlights.NewMatrixFromFrameMajor([]string{"a", "b"}, [][]float64{{0.1, 0.9}, {0.2, 0.8}, {0.3, 0.7}})
	if err != nil {
		t.Fatalf("NewMatrixFromFrameMajor failed: %v", err)
	}
	if m.FrameCount() != 3 || m.ClassCount() != 2 {
		t.Fatalf("unexpected shape classes=%d frames=%d", m.ClassCount(), m.FrameCount())
	}
	row, err := m.Row(1)
	if err != nil {
		t.Fatalf("Row failed: %v", err)
	}
	want := []float64{0.9, 0.8, 0.7}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("row[%d] = %v, want %v", i, row[i], want[i])
		}
	}

	if _, err := highlights.NewMatrixFromFrameMajor([]string{"a", "b"}, [][]float64{{0.1}}); !errors.Is(err, highlights.ErrInvalidMatrix) {
		t.Fatalf("expected ErrInvalidMatrix for short frame, got %v", err)
	}
}

func TestFilterKeepsMatrixOrder(t *testing.T) {
	m := mustMatrix(t, []string{"a", "b", "c"}, [][]float64{{1, 1}, {2, 2}, {3, 3}})
	filtered := m.Filter([]string{"c", "a", "missing"})
	names := filtered.ClassNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Fatalf("unexpected filtered names %v", names)
	}
	if filtered.FrameCount() != 2 {
		t.Fatalf("expected 2 frames, got %d", filtered.FrameCount())
	}
	if none := m.Filter([]string{"missing"}); none.FrameCount() != 0 || none.ClassCount() != 0 {
		t.Fatalf("expected empty filter result, got classes=%d frames=%d", none.ClassCount(), none.FrameCount())
	}
}

func TestSlice(t *testing.T) {
	m := mustMatrix(t, []string{"a"}, [][]float64{{0, 1, 2, 3, 4}})
	sub, err := m.Slice(1, 3)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if sub.FrameCount() != 3 {
		t.Fatalf("expected 3 frames, got %d", sub.FrameCount())
	}
	if v, _ := sub.ScoreAt(0, 0); v != 1 {
		t.Fatalf("expected first sliced score 1, got %v", v)
	}
	if _, err := m.Slice(3, 3); !errors.Is(err, highlights.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
