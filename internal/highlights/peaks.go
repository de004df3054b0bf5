package highlights

import (
	"fmt"
	"math"
	"sort"
)

// peakLeadRatio places a peak-anchored window so that roughly three quarters
// of it precede the peak frame.
const peakLeadRatio = 0.75

// AudioSegment is a window anchored on a global per-frame maximum.
type AudioSegment struct {
	StartAudioFrameInd    int     `json:"startAudioFrameInd"`
	DurationInAudioFrames int     `json:"durationInAudioFrames"`
	PeakAudioFrameInd     int     `json:"peakAudioFrameInd"`
	PeakScore             float64 `json:"peakScore"`
}

type framePeak struct {
	frame int
	score float64
}

// FindPeakSegments walks frames from the highest per-frame maximum (across all
// classes) downward and grows up to maxFramesInSegment frames around each
// unused peak, starting round(0.75*maxFramesInSegment) frames before it.
// A window stops growing at a frame claimed by an earlier, stronger window or
// at the end of the recording, so windows never overlap.
func FindPeakSegments(m *Matrix, maxFramesInSegment, maxSegments int) ([]AudioSegment, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: matrix is nil", ErrInvalidConfig)
	}
	if maxFramesInSegment < 1 {
		return nil, fmt.Errorf("%w: segment length %d", ErrInvalidRange, maxFramesInSegment)
	}
	found := []AudioSegment{}
	frames := m.FrameCount()
	if maxSegments <= 0 || frames == 0 {
		return found, nil
	}

	used := make([]bool, frames)
	lead := int(math.Round(float64(maxFramesInSegment) * peakLeadRatio))
	for _, peak := range sortedFramePeaks(m) {
		if used[peak.frame] {
			continue
		}

		start := max(peak.frame-lead, 0)
		for used[start] {
			start++
		}

		end := start
		for {
			used[end] = true
			end++
			if end-start >= maxFramesInSegment || end >= frames || used[end] {
				break
			}
		}

		found = append(found, AudioSegment{
			StartAudioFrameInd:    start,
			DurationInAudioFrames: end - start,
			PeakAudioFrameInd:     peak.frame,
			PeakScore:             peak.score,
		})
		if len(found) >= maxSegments {
			break
		}
	}
	return found, nil
}

// sortedFramePeaks returns every frame with its maximum score across classes,
// strongest first. Equal scores keep ascending frame order. NaN cells are
// ignored, and a frame with no other score never anchors a segment.
func sortedFramePeaks(m *Matrix) []framePeak {
	peaks := make([]framePeak, 0, m.FrameCount())
	for f := range m.FrameCount() {
		best, ok := 0.0, false
		for _, row := range m.scores {
			if v := row[f]; !math.IsNaN(v) && (!ok || v > best) {
				best, ok = v, true
			}
		}
		if ok {
			peaks = append(peaks, framePeak{frame: f, score: best})
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].score > peaks[j].score
	})
	return peaks
}

// TieredSegment is a peak segment tagged with the part of the recording it
// was found in and whether it ranks in that part's tier 2 shortlist.
type TieredSegment struct {
	AudioSegment
	Part  int `json:"part"`
	Tier2 bool `json:"tier2"`
}

// FindTieredPeakSegments splits the recording into preset.PartsCount parts of
// near-equal length and finds up to Tier1SegmentsCount peak segments in each,
// so highlights come from across the whole recording. The first
// Tier2SegmentsCount segments of each part are flagged as tier 2. Frame
// indices in the result are absolute.
func FindTieredPeakSegments(m *Matrix, preset Preset, framesPerSegment int) ([]TieredSegment, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: matrix is nil", ErrInvalidConfig)
	}
	if err := preset.Validate(); err != nil {
		return nil, err
	}
	frames := m.FrameCount()
	out := []TieredSegment{}
	if frames == 0 {
		return out, nil
	}

	parts := min(preset.PartsCount, frames)
	for part := 0; part < parts; part++ {
		start := part * frames / parts
		end := (part + 1) * frames / parts
		sub, err := m.Slice(start, end-start)
		if err != nil {
			return nil, err
		}
		segments, err := FindPeakSegments(sub, framesPerSegment, preset.Tier1SegmentsCount)
		if err != nil {
			return nil, err
		}
		for i, seg := range segments {
			seg.StartAudioFrameInd += start
			seg.PeakAudioFrameInd += start
			out = append(out, TieredSegment{
				AudioSegment: seg,
				Part:         part,
				Tier2:        i < preset.Tier2SegmentsCount,
			})
		}
	}
	return out, nil
}
