package highlights

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultSegmentLength is the window size, in frames, used when a category leaves it unset.
	DefaultSegmentLength = 30
	// DefaultMaxSegments is the per-category quota used when a category leaves it unset.
	DefaultMaxSegments = 5
)

// Category groups trigger classes under a user-facing highlight heading.
// A zero SegmentLength, MaxSegments or Reducer selects the package default;
// set Disabled to keep a category configured but skip its search.
type Category struct {
	Name                string      `json:"name" toml:"name" yaml:"name"`
	Description         string      `json:"description" toml:"description" yaml:"description"`
	Color               string      `json:"color,omitempty" toml:"color" yaml:"color"`
	TriggerAudioClasses []string    `json:"triggerAudioClasses" toml:"trigger_audio_classes" yaml:"trigger_audio_classes"`
	SegmentLength       int         `json:"segmentLength" toml:"segment_length" yaml:"segment_length"`
	MaxSegments         int         `json:"maxSegments" toml:"max_segments" yaml:"max_segments"`
	Threshold           float64     `json:"threshold" toml:"threshold" yaml:"threshold"`
	Reducer             ReducerKind `json:"reducer" toml:"reducer" yaml:"reducer"`
	Disabled            bool        `json:"disabled,omitempty" toml:"disabled" yaml:"disabled"`
}

func (c Category) withDefaults() Category {
	if c.SegmentLength == 0 {
		c.SegmentLength = DefaultSegmentLength
	}
	if c.MaxSegments == 0 {
		c.MaxSegments = DefaultMaxSegments
	}
	if c.Reducer == "" {
		c.Reducer = DefaultReducer
	}
	return c
}

// Normalize fills unset parameters with defaults and trims names.
func (c Category) Normalize() Category {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	classes := make([]string, 0, len(c.TriggerAudioClasses))
	for _, name := range c.TriggerAudioClasses {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			classes = append(classes, trimmed)
		}
	}
	c.TriggerAudioClasses = classes
	if kind, err := ParseReducerKind(string(c.Reducer)); err == nil {
		c.Reducer = kind
	}
	return c.withDefaults()
}

// Validate reports an unusable category definition.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", ErrInvalidConfig)
	}
	if len(c.TriggerAudioClasses) == 0 {
		return fmt.Errorf("%w: category %q has no trigger classes", ErrInvalidConfig, c.Name)
	}
	seen := make(map[string]struct{}, len(c.TriggerAudioClasses))
	for _, name := range c.TriggerAudioClasses {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: category %q has an empty trigger class", ErrInvalidConfig, c.Name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: category %q lists %q twice", ErrInvalidConfig, c.Name, name)
		}
		seen[name] = struct{}{}
	}
	if c.SegmentLength < 1 {
		return fmt.Errorf("%w: category %q segment length must be positive", ErrInvalidConfig, c.Name)
	}
	if c.MaxSegments < 0 {
		return fmt.Errorf("%w: category %q max segments must be >= 0", ErrInvalidConfig, c.Name)
	}
	if math.IsNaN(c.Threshold) {
		return fmt.Errorf("%w: category %q threshold is NaN", ErrInvalidConfig, c.Name)
	}
	if _, err := ParseReducerKind(string(c.Reducer)); err != nil {
		return fmt.Errorf("category %q: %w", c.Name, err)
	}
	return nil
}

// ValidateCategories validates each category and rejects duplicate names.
func ValidateCategories(categories []Category) error {
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if err := c.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(c.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidConfig, c.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// CheckTriggerClasses returns ErrMissingTriggerClass for the first trigger
// class of any enabled category that the matrix does not contain.
func CheckTriggerClasses(m *Matrix, categories []Category) error {
	for _, c := range categories {
		if c.Disabled {
			continue
		}
		for _, name := range c.TriggerAudioClasses {
			if _, ok := m.ClassIndex(name); !ok {
				return fmt.Errorf("%w: category %q references %q", ErrMissingTriggerClass, c.Name, name)
			}
		}
	}
	return nil
}

// DefaultCategories returns the built-in categories.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:                "Emotions",
			Description:         "Top emotional moments",
			Color:               "#ff0000",
			TriggerAudioClasses: []string{"Shout", "Yell", "Screaming"},
			SegmentLength:       DefaultSegmentLength,
			MaxSegments:         DefaultMaxSegments,
			Reducer:             DefaultReducer,
		},
		{
			Name:                "Gunshots",
			Description:         "The most gunshots",
			Color:               "#00ff00",
			TriggerAudioClasses: []string{"Gunshot, gunfire"},
			SegmentLength:       DefaultSegmentLength,
			MaxSegments:         DefaultMaxSegments,
			Reducer:             DefaultReducer,
		},
		{
			Name:                "Funniest moments",
			Description:         "Top funniest moments",
			Color:               "#0000ff",
			TriggerAudioClasses: []string{"Cheering", "Laughter"},
			SegmentLength:       DefaultSegmentLength,
			MaxSegments:         DefaultMaxSegments,
			Reducer:             DefaultReducer,
		},
	}
}

// Preset configures the peak-based tiered highlights.
type Preset struct {
	// PartsCount splits the recording so highlights come from every part of it.
	PartsCount int `json:"partsCnt" toml:"parts_count" yaml:"parts_count"`
	// Tier1SegmentsCount is the number of candidates found per part.
	Tier1SegmentsCount int `json:"tier1SegmentsCnt" toml:"tier1_segments_count" yaml:"tier1_segments_count"`
	// Tier2SegmentsCount is the shortlist per part; never more than Tier1SegmentsCount.
	Tier2SegmentsCount int `json:"tier2SegmentsCnt" toml:"tier2_segments_count" yaml:"tier2_segments_count"`
	// MinSegmentLengthMs is the minimum segment length in milliseconds.
	MinSegmentLengthMs int `json:"minSegmentLength" toml:"min_segment_length_ms" yaml:"min_segment_length_ms"`
	// TargetClasses restricts peak detection to these classes.
	TargetClasses []string `json:"targetClasses" toml:"target_classes" yaml:"target_classes"`
}

// DefaultPreset returns the built-in preset.
func DefaultPreset() Preset {
	return Preset{
		PartsCount:         3,
		Tier1SegmentsCount: 9,
		Tier2SegmentsCount: 1,
		MinSegmentLengthMs: 5000,
		TargetClasses:      []string{"Shout", "Yell", "Screaming"},
	}
}

// Validate reports an unusable preset.
func (p Preset) Validate() error {
	if p.PartsCount < 1 {
		return fmt.Errorf("%w: parts count must be positive", ErrInvalidConfig)
	}
	if p.Tier1SegmentsCount < 0 || p.Tier2SegmentsCount < 0 {
		return fmt.Errorf("%w: tier segment counts must be >= 0", ErrInvalidConfig)
	}
	if p.Tier2SegmentsCount > p.Tier1SegmentsCount {
		return fmt.Errorf("%w: tier 2 segment count %d exceeds tier 1 count %d", ErrInvalidConfig, p.Tier2SegmentsCount, p.Tier1SegmentsCount)
	}
	if p.MinSegmentLengthMs <= 0 {
		return fmt.Errorf("%w: minimum segment length must be positive", ErrInvalidConfig)
	}
	if len(p.TargetClasses) == 0 {
		return fmt.Errorf("%w: preset needs at least one target class", ErrInvalidConfig)
	}
	return nil
}

// FramesPerSegment converts MinSegmentLengthMs to a frame count for the given
// frame duration, rounding up and never returning less than one frame.
func (p Preset) FramesPerSegment(secondsPerFrame float64) int {
	if secondsPerFrame <= 0 || math.IsNaN(secondsPerFrame) || math.IsInf(secondsPerFrame, 0) {
		return DefaultSegmentLength
	}
	frames := int(math.Ceil(float64(p.MinSegmentLengthMs) / 1000 / secondsPerFrame))
	return max(frames, 1)
}
