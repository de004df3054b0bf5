package highlights

// ClassStats aggregates one class over a frame range.
type ClassStats struct {
	Total   float64 `json:"total"`
	Avg     float64 `json:"avg"`
	Peak    float64 `json:"peak"`
	PeakInd int     `json:"peakInd"`
}

// SegmentSummary describes the frame range [StartInd, StartInd+Length) and the
// per-class statistics over it. Score is filled in by the selector.
type SegmentSummary struct {
	StartInd           int                   `json:"startInd"`
	Length             int                   `json:"length"`
	Score              float64               `json:"score"`
	ScoresForEachClass map[string]ClassStats `json:"scoresForEachClass"`
}

// Summarize aggregates every class over [startInd, startInd+length).
// It fails with ErrInvalidRange instead of clamping.
func Summarize(m *Matrix, startInd, length int) (SegmentSummary, error) {
	if err := m.checkRange(startInd, length); err != nil {
		return SegmentSummary{}, err
	}
	return summarizeRows(m, startInd, length, nil), nil
}

// summarizeRows aggregates the listed class rows, or all rows when classes is nil.
// The range must already be validated.
func summarizeRows(m *Matrix, startInd, length int, classes []int) SegmentSummary {
	if classes == nil {
		classes = make([]int, len(m.scores))
		for i := range classes {
			classes[i] = i
		}
	}
	summary := SegmentSummary{
		StartInd:           startInd,
		Length:             length,
		ScoresForEachClass: make(map[string]ClassStats, len(classes)),
	}
	for _, c := range classes {
		summary.ScoresForEachClass[m.classNames[c]] = classStats(m.scores[c], startInd, length)
	}
	return summary
}

func classStats(row []float64, startInd, length int) ClassStats {
	stats := ClassStats{Peak: row[startInd], PeakInd: startInd}
	for ind := startInd; ind < startInd+length; ind++ {
		value := row[ind]
		stats.Total += value
		if value > stats.Peak {
			stats.Peak = value
			stats.PeakInd = ind
		}
	}
	stats.Avg = stats.Total / float64(length)
	return stats
}
