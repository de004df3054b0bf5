package highlights_test

import (
	"errors"
	"testing"

	"highlighter/internal/highlights"
)

func TestSummarizeAverage(t *testing.T) {
	m := mustMatrix(t, []string{"Shout"}, [][]float64{{1, 1, 1, 1, 1}})
	summary, err := highlights.Summarize(m, 0, 5)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	stats := summary.ScoresForEachClass["Shout"]
	if stats.Avg != 1.0 || stats.Peak != 1.0 || stats.PeakInd != 0 || stats.Total != 5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if summary.StartInd != 0 || summary.Length != 5 {
		t.Fatalf("unexpected range %d+%d", summary.StartInd, summary.Length)
	}
}

func TestSummarizePeakTieKeepsEarliest(t *testing.T) {
	m := mustMatrix(t, []string{"Shout"}, [][]float64{{0.2, 0.9, 0.9, 0.1}})
	summary, err := highlights.Summarize(m, 0, 4)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	stats := summary.ScoresForEachClass["Shout"]
	if stats.Peak != 0.9 || stats.PeakInd != 1 {
		t.Fatalf("expected peak 0.9 at 1, got %v at %d", stats.Peak, stats.PeakInd)
	}
}

func TestSummarizePeakIndIsAbsolute(t *testing.T) {
	m := mustMatrix(t, []string{"a", "b"}, [][]float64{{0, 0, 0.3, 0.7, 0.1}, {0.5, 0.4, 0.3, 0.2, 0.1}})
	summary, err := highlights.Summarize(m, 2, 3)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got := summary.ScoresForEachClass["a"].PeakInd; got != 3 {
		t.Fatalf("expected absolute peak index 3, got %d", got)
	}
	if got := summary.ScoresForEachClass["b"].PeakInd; got != 2 {
		t.Fatalf("expected first frame of range as peak, got %d", got)
	}
	if len(summary.ScoresForEachClass) != 2 {
		t.Fatalf("expected every class summarized, got %d", len(summary.ScoresForEachClass))
	}
}

func TestSummarizeRejectsBadRanges(t *testing.T) {
	m := mustMatrix(t, []string{"a"}, [][]float64{{1, 2, 3}})
	cases := []struct {
		name          string
		start, length int
	}{
		{"negative start", -1, 2},
		{"zero length", 0, 0},
		{"past end", 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := highlights.Summarize(m, tc.start, tc.length); !errors.Is(err, highlights.ErrInvalidRange) {
				t.Fatalf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}
