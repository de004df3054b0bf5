package highlights_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"highlighter/internal/highlights"
)

func TestBuildReport(t *testing.T) {
	m := shoutLaughterMatrix(t)
	preset := highlights.Preset{PartsCount: 2, Tier1SegmentsCount: 1, Tier2SegmentsCount: 1, MinSegmentLengthMs: 2000, TargetClasses: []string{"Shout"}}
	report, err := highlights.BuildReport(m, highlights.ReportOptions{
		Categories:      []highlights.Category{{Name: "Emotions", TriggerAudioClasses: []string{"Shout"}, SegmentLength: 2, MaxSegments: 1}},
		Preset:          &preset,
		DurationSeconds: 10,
		PadBefore:       4 * time.Second,
		PadAfter:        2 * time.Second,
	})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if report.FrameCount != 10 || report.SecondsPerFrame != 1 {
		t.Fatalf("unexpected report header %+v", report)
	}
	if len(report.Categories) != 1 || len(report.Categories[0].Segments) != 1 {
		t.Fatalf("unexpected categories %+v", report.Categories)
	}
	seg := report.Categories[0].Segments[0]
	if seg.Span == nil || seg.Span.StartSeconds != 5 || seg.Span.DurationSeconds != 2 {
		t.Fatalf("unexpected span %+v", seg.Span)
	}
	if seg.Playback == nil || math.Abs(seg.Playback.StartSeconds-1) > 1e-9 || math.Abs(seg.Playback.End()-9) > 1e-9 {
		t.Fatalf("unexpected playback %+v", seg.Playback)
	}
	if len(report.Peaks) != 2 {
		t.Fatalf("expected one peak per part, got %+v", report.Peaks)
	}
	for _, peak := range report.Peaks {
		if !peak.Tier2 {
			t.Fatalf("expected tier 2 flag on the only segment of each part: %+v", peak)
		}
	}
}

func TestBuildReportWithoutDuration(t *testing.T) {
	m := shoutLaughterMatrix(t)
	report, err := highlights.BuildReport(m, highlights.ReportOptions{
		Categories: []highlights.Category{{Name: "Emotions", TriggerAudioClasses: []string{"Shout"}, SegmentLength: 2, MaxSegments: 1}},
	})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if seg := report.Categories[0].Segments[0]; seg.Span != nil || seg.Playback != nil {
		t.Fatalf("expected no spans without a duration, got %+v", seg)
	}
	if report.Peaks != nil {
		t.Fatalf("expected no peaks without a preset, got %+v", report.Peaks)
	}
}

func TestBuildReportMissingTargets(t *testing.T) {
	m := shoutLaughterMatrix(t)
	preset := highlights.DefaultPreset()
	preset.TargetClasses = []string{"Gunshot, gunfire"}
	_, err := highlights.BuildReport(m, highlights.ReportOptions{Preset: &preset, DurationSeconds: 10})
	if !errors.Is(err, highlights.ErrMissingTriggerClass) {
		t.Fatalf("expected ErrMissingTriggerClass, got %v", err)
	}
}
