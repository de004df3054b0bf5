package highlights

import (
	"fmt"
	"math"
	"strings"
)

// ScoreFunc reduces a segment summary to the scalar the selector maximizes.
type ScoreFunc func(SegmentSummary) float64

// ReducerKind names one of the supported category score reducers.
type ReducerKind string

const (
	// ReducerMaxOfAverages scores a window by its strongest trigger class average.
	ReducerMaxOfAverages ReducerKind = "max_of_averages"
	// ReducerSumOfAverages adds the trigger class averages.
	ReducerSumOfAverages ReducerKind = "sum_of_averages"
	// ReducerMeanOfAverages averages the trigger class averages.
	ReducerMeanOfAverages ReducerKind = "mean_of_averages"
	// ReducerMaxOfPeaks scores a window by its single loudest trigger frame.
	ReducerMaxOfPeaks ReducerKind = "max_of_peaks"
)

// DefaultReducer is used when a category does not name one.
const DefaultReducer = ReducerMaxOfAverages

var reducerKinds = []ReducerKind{
	ReducerMaxOfAverages,
	ReducerSumOfAverages,
	ReducerMeanOfAverages,
	ReducerMaxOfPeaks,
}

// ReducerKinds lists the supported reducers in display order.
func ReducerKinds() []ReducerKind {
	return append([]ReducerKind(nil), reducerKinds...)
}

// ParseReducerKind normalizes a reducer name. An empty value maps to DefaultReducer.
func ParseReducerKind(value string) (ReducerKind, error) {
	normalized := ReducerKind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return DefaultReducer, nil
	}
	for _, kind := range reducerKinds {
		if kind == normalized {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: unknown reducer %q", ErrInvalidConfig, value)
}

// NewReducer builds the score function for a reducer over the given trigger classes.
// Classes absent from a summary contribute nothing; callers that need strict
// handling validate trigger classes against the matrix first.
func NewReducer(kind ReducerKind, triggerClasses []string) (ScoreFunc, error) {
	classes := append([]string(nil), triggerClasses...)
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: reducer needs at least one trigger class", ErrInvalidConfig)
	}
	switch kind {
	case ReducerMaxOfAverages, "":
		return func(s SegmentSummary) float64 {
			return reduceMax(s, classes, func(cs ClassStats) float64 { return cs.Avg })
		}, nil
	case ReducerMaxOfPeaks:
		return func(s SegmentSummary) float64 {
			return reduceMax(s, classes, func(cs ClassStats) float64 { return cs.Peak })
		}, nil
	case ReducerSumOfAverages:
		return func(s SegmentSummary) float64 {
			total, _ := reduceSum(s, classes)
			return total
		}, nil
	case ReducerMeanOfAverages:
		return func(s SegmentSummary) float64 {
			total, n := reduceSum(s, classes)
			if n == 0 {
				return 0
			}
			return total / float64(n)
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown reducer %q", ErrInvalidConfig, kind)
	}
}

func reduceMax(s SegmentSummary, classes []string, pick func(ClassStats) float64) float64 {
	best := math.Inf(-1)
	found := false
	for _, name := range classes {
		cs, ok := s.ScoresForEachClass[name]
		if !ok {
			continue
		}
		found = true
		best = math.Max(best, pick(cs))
	}
	if !found {
		return 0
	}
	return best
}

func reduceSum(s SegmentSummary, classes []string) (float64, int) {
	total := 0.0
	n := 0
	for _, name := range classes {
		cs, ok := s.ScoresForEachClass[name]
		if !ok {
			continue
		}
		total += cs.Avg
		n++
	}
	return total, n
}
