package highlights

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// SelectTopSegments repeatedly picks the best-scoring window of segmentLength
// frames that does not overlap a window picked earlier in the same call.
//
// Candidate starts are scanned in ascending order over [0, T-segmentLength);
// a candidate only replaces the current best when its score is strictly
// greater, so the lowest start wins ties. Selection stops after maxSegments
// windows or as soon as the best remaining score is <= threshold. Results are
// returned in selection order, which is non-increasing by score.
func SelectTopSegments(m *Matrix, segmentLength, maxSegments int, scoreFn ScoreFunc, threshold float64) ([]SegmentSummary, error) {
	return selectTopSegments(m, segmentLength, maxSegments, scoreFn, threshold, nil)
}

// selectTopSegments restricts per-candidate summaries to scanClasses (all
// classes when nil). Per-class statistics are computed identically either way,
// so a scoreFn that only reads scanClasses sees the same values.
func selectTopSegments(m *Matrix, segmentLength, maxSegments int, scoreFn ScoreFunc, threshold float64, scanClasses []int) ([]SegmentSummary, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: matrix is nil", ErrInvalidConfig)
	}
	if scoreFn == nil {
		return nil, fmt.Errorf("%w: score function is nil", ErrInvalidConfig)
	}
	if segmentLength < 1 {
		return nil, fmt.Errorf("%w: segment length %d", ErrInvalidRange, segmentLength)
	}
	if maxSegments <= 0 || m.FrameCount() < segmentLength {
		return []SegmentSummary{}, nil
	}

	reserved := make([]bool, m.FrameCount())
	results := make([]SegmentSummary, 0, maxSegments)
	for len(results) < maxSegments {
		start, score, found := bestCandidate(m, reserved, segmentLength, scoreFn, scanClasses)
		if !found || score <= threshold {
			break
		}
		summary := summarizeRows(m, start, segmentLength, nil)
		summary.Score = score
		results = append(results, summary)
		for ind := start; ind < start+segmentLength; ind++ {
			reserved[ind] = true
		}
	}
	return results, nil
}

func bestCandidate(m *Matrix, reserved []bool, segmentLength int, scoreFn ScoreFunc, scanClasses []int) (int, float64, bool) {
	var (
		bestStart int
		bestScore float64
		found     bool
	)
	limit := m.FrameCount() - segmentLength
	for start := 0; start < limit; start++ {
		if blocked := lastReserved(reserved, start, segmentLength); blocked >= 0 {
			start = blocked
			continue
		}
		score := scoreFn(summarizeRows(m, start, segmentLength, scanClasses))
		if math.IsNaN(score) {
			continue
		}
		if !found || score > bestScore {
			bestStart, bestScore, found = start, score, true
		}
	}
	return bestStart, bestScore, found
}

// lastReserved returns the last reserved index inside the window, or -1 when
// the window is free. Every start up to that index overlaps it as well.
func lastReserved(reserved []bool, start, length int) int {
	for ind := start + length - 1; ind >= start; ind-- {
		if reserved[ind] {
			return ind
		}
	}
	return -1
}

// CategoryResult pairs a category with the segments selected for it.
type CategoryResult struct {
	Category Category         `json:"category"`
	Segments []SegmentSummary `json:"segments"`
}

// SelectForCategory validates the category against the matrix and selects its
// segments. Every trigger class must exist in the matrix; a missing one fails
// with ErrMissingTriggerClass before any scanning happens. A disabled category
// yields no segments and is not checked against the matrix.
func SelectForCategory(m *Matrix, category Category) (CategoryResult, error) {
	if m == nil {
		return CategoryResult{}, fmt.Errorf("%w: matrix is nil", ErrInvalidConfig)
	}
	category = category.withDefaults()
	if err := category.Validate(); err != nil {
		return CategoryResult{}, err
	}
	if category.Disabled {
		return CategoryResult{Category: category, Segments: []SegmentSummary{}}, nil
	}
	scan := make([]int, 0, len(category.TriggerAudioClasses))
	for _, name := range category.TriggerAudioClasses {
		idx, ok := m.ClassIndex(name)
		if !ok {
			return CategoryResult{}, fmt.Errorf("%w: category %q references %q", ErrMissingTriggerClass, category.Name, name)
		}
		scan = append(scan, idx)
	}
	scoreFn, err := NewReducer(category.Reducer, category.TriggerAudioClasses)
	if err != nil {
		return CategoryResult{}, fmt.Errorf("category %q: %w", category.Name, err)
	}
	segments, err := selectTopSegments(m, category.SegmentLength, category.MaxSegments, scoreFn, category.Threshold, scan)
	if err != nil {
		return CategoryResult{}, fmt.Errorf("category %q: %w", category.Name, err)
	}
	return CategoryResult{Category: category, Segments: segments}, nil
}

// SelectForCategories runs SelectForCategory for every category concurrently
// and returns results in input order. If any category fails, no results are
// returned and the errors are joined.
func SelectForCategories(m *Matrix, categories []Category) ([]CategoryResult, error) {
	results := make([]CategoryResult, len(categories))
	errs := make([]error, len(categories))

	var wg sync.WaitGroup
	for i, category := range categories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = SelectForCategory(m, category)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}
