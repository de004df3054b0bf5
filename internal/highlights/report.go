package highlights

import (
	"fmt"
	"time"
)

// ReportOptions controls BuildReport.
type ReportOptions struct {
	Categories      []Category
	Preset          *Preset
	DurationSeconds float64
	PadBefore       time.Duration
	PadAfter        time.Duration
}

// Report is the serialized highlight result for one recording.
type Report struct {
	GeneratedAt     time.Time        `json:"generatedAt"`
	DurationSeconds float64          `json:"durationSeconds"`
	FrameCount      int              `json:"frameCount"`
	SecondsPerFrame float64          `json:"secondsPerFrame"`
	Categories      []CategoryReport `json:"categories"`
	Peaks           []PeakReport     `json:"peaks,omitempty"`
}

// CategoryReport carries one category's segments with their clock times.
type CategoryReport struct {
	Category Category        `json:"category"`
	Segments []SegmentReport `json:"segments"`
}

// SegmentReport is a SegmentSummary plus wall-clock spans. Spans are nil when
// the recording duration is unknown.
type SegmentReport struct {
	SegmentSummary
	Span     *TimeSpan `json:"span,omitempty"`
	Playback *TimeSpan `json:"playback,omitempty"`
}

// PeakReport is a tiered peak segment plus wall-clock spans.
type PeakReport struct {
	TieredSegment
	Span     *TimeSpan `json:"span,omitempty"`
	Playback *TimeSpan `json:"playback,omitempty"`
}

// BuildReport runs category selection and, when a preset is given, the tiered
// peak finder over the preset's target classes.
func BuildReport(m *Matrix, opts ReportOptions) (Report, error) {
	if m == nil {
		return Report{}, fmt.Errorf("%w: matrix is nil", ErrInvalidConfig)
	}
	timeline := Timeline{DurationSeconds: opts.DurationSeconds, FrameCount: m.FrameCount()}
	report := Report{
		GeneratedAt:     time.Now().UTC(),
		DurationSeconds: opts.DurationSeconds,
		FrameCount:      m.FrameCount(),
		SecondsPerFrame: timeline.SecondsPerFrame(),
		Categories:      make([]CategoryReport, 0, len(opts.Categories)),
	}

	results, err := SelectForCategories(m, opts.Categories)
	if err != nil {
		return Report{}, err
	}
	for _, result := range results {
		entry := CategoryReport{Category: result.Category, Segments: make([]SegmentReport, 0, len(result.Segments))}
		for _, seg := range result.Segments {
			span, playback := spans(timeline, seg, opts)
			entry.Segments = append(entry.Segments, SegmentReport{SegmentSummary: seg, Span: span, Playback: playback})
		}
		report.Categories = append(report.Categories, entry)
	}

	if opts.Preset == nil {
		return report, nil
	}
	targets := m.Filter(opts.Preset.TargetClasses)
	if targets.ClassCount() == 0 {
		return Report{}, fmt.Errorf("%w: none of the preset target classes %v are present", ErrMissingTriggerClass, opts.Preset.TargetClasses)
	}
	framesPerSegment := DefaultSegmentLength
	if timeline.Valid() {
		framesPerSegment = opts.Preset.FramesPerSegment(timeline.SecondsPerFrame())
	}
	peaks, err := FindTieredPeakSegments(targets, *opts.Preset, framesPerSegment)
	if err != nil {
		return Report{}, err
	}
	report.Peaks = make([]PeakReport, 0, len(peaks))
	for _, peak := range peaks {
		span, playback := spans(timeline, peak.AudioSegment, opts)
		report.Peaks = append(report.Peaks, PeakReport{TieredSegment: peak, Span: span, Playback: playback})
	}
	return report, nil
}

func spans(timeline Timeline, seg Segment, opts ReportOptions) (*TimeSpan, *TimeSpan) {
	if !timeline.Valid() {
		return nil, nil
	}
	span, err := timeline.SegmentSpan(seg)
	if err != nil {
		return nil, nil
	}
	playback := timeline.PlaybackRange(span, opts.PadBefore, opts.PadAfter)
	return &span, &playback
}
