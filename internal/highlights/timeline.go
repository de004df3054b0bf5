package highlights

import (
	"fmt"
	"math"
	"time"
)

// Timeline maps frame indices onto the video clock. The classifier hop is
// not known here, so seconds per frame is DurationSeconds / FrameCount.
type Timeline struct {
	DurationSeconds float64
	FrameCount      int
}

// TimeSpan is a frame range expressed in seconds.
type TimeSpan struct {
	StartSeconds    float64 `json:"startSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// End returns the end of the span in seconds.
func (s TimeSpan) End() float64 {
	return s.StartSeconds + s.DurationSeconds
}

// Label renders the span as "start - end" clock values.
func (s TimeSpan) Label() string {
	return FormatClock(s.StartSeconds) + " - " + FormatClock(s.End())
}

// Valid reports whether the timeline can convert frames.
func (t Timeline) Valid() bool {
	return t.FrameCount > 0 && t.DurationSeconds > 0 && !math.IsInf(t.DurationSeconds, 0)
}

// SecondsPerFrame returns the effective frame duration, or 0 for an invalid timeline.
func (t Timeline) SecondsPerFrame() float64 {
	if !t.Valid() {
		return 0
	}
	return t.DurationSeconds / float64(t.FrameCount)
}

// Span converts [start, start+length) frames to seconds.
func (t Timeline) Span(start, length int) (TimeSpan, error) {
	if !t.Valid() {
		return TimeSpan{}, fmt.Errorf("%w: timeline needs a positive duration and frame count", ErrInvalidConfig)
	}
	if start < 0 || length < 1 || start+length > t.FrameCount {
		return TimeSpan{}, fmt.Errorf("%w: frames [%d, %d) outside [0, %d)", ErrInvalidRange, start, start+length, t.FrameCount)
	}
	spf := t.SecondsPerFrame()
	return TimeSpan{
		StartSeconds:    float64(start) * spf,
		DurationSeconds: float64(length) * spf,
	}, nil
}

// SegmentSpan converts any highlight segment to seconds.
func (t Timeline) SegmentSpan(seg Segment) (TimeSpan, error) {
	start, length := seg.FrameRange()
	return t.Span(start, length)
}

// PlaybackRange pads a span for playback and clamps it to the recording.
func (t Timeline) PlaybackRange(span TimeSpan, before, after time.Duration) TimeSpan {
	start := math.Max(span.StartSeconds-before.Seconds(), 0)
	end := span.End() + after.Seconds()
	if t.DurationSeconds > 0 {
		end = math.Min(end, t.DurationSeconds)
	}
	if end < start {
		end = start
	}
	return TimeSpan{StartSeconds: start, DurationSeconds: end - start}
}

// FormatClock renders seconds as mm:ss, or HH:mm:ss once the hour is non-zero.
// Fractions are truncated and negative values print as 00:00.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
