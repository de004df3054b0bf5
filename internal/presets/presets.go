// Package presets resolves the named highlight preset a run uses. Presets
// come from a built-in YAML catalog, optionally extended by the file named in
// highlights.presets_file; the "default" preset is the highlights section of
// the main config.
package presets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"highlighter/internal/config"
	"highlighter/internal/highlights"
)

// DefaultName selects the highlights section of the main config.
const DefaultName = "default"

//go:embed builtin.yaml
var builtinYAML []byte

// ErrUnknownPreset is returned when a preset name is not in the catalog.
var ErrUnknownPreset = errors.New("unknown preset")

// Entry is one catalog preset. Unset fields inherit from the main config.
type Entry struct {
	Description      string                `yaml:"description"`
	Tiered           *highlights.Preset    `yaml:"tiered"`
	Categories       []highlights.Category `yaml:"categories"`
	PadBeforeSeconds *float64              `yaml:"pad_before_seconds"`
	PadAfterSeconds  *float64              `yaml:"pad_after_seconds"`
}

// Catalog maps preset names to entries.
type Catalog struct {
	Presets map[string]Entry `yaml:"presets"`
}

// Selection is a fully resolved preset ready for highlights.BuildReport.
type Selection struct {
	Name        string
	Description string
	Tiered      highlights.Preset
	Categories  []highlights.Category
	PadBefore   time.Duration
	PadAfter    time.Duration
}

// ReportOptions converts the selection into report options for a recording.
func (s Selection) ReportOptions(durationSeconds float64, includePeaks bool) highlights.ReportOptions {
	opts := highlights.ReportOptions{
		Categories:      s.Categories,
		DurationSeconds: durationSeconds,
		PadBefore:       s.PadBefore,
		PadAfter:        s.PadAfter,
	}
	if includePeaks {
		tiered := s.Tiered
		opts.Preset = &tiered
	}
	return opts
}

// Parse decodes a catalog document and normalizes its names and categories.
func Parse(data []byte) (Catalog, error) {
	var raw Catalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Catalog{}, fmt.Errorf("parse presets: %w", err)
	}
	catalog := Catalog{Presets: make(map[string]Entry, len(raw.Presets))}
	for name, entry := range raw.Presets {
		key := normalizeName(name)
		if key == "" {
			return Catalog{}, errors.New("parse presets: empty preset name")
		}
		if key == DefaultName {
			return Catalog{}, fmt.Errorf("parse presets: %q is reserved for the main config", DefaultName)
		}
		for i := range entry.Categories {
			entry.Categories[i] = entry.Categories[i].Normalize()
		}
		catalog.Presets[key] = entry
	}
	return catalog, nil
}

// Builtin returns the embedded catalog.
func Builtin() Catalog {
	catalog, err := Parse(builtinYAML)
	if err != nil {
		panic(err)
	}
	return catalog
}

// Load returns the built-in catalog merged with the file at path. A blank
// path yields the built-in catalog alone.
func Load(path string) (Catalog, error) {
	catalog := Builtin()
	if strings.TrimSpace(path) == "" {
		return catalog, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read presets file: %w", err)
	}
	extra, err := Parse(data)
	if err != nil {
		return Catalog{}, err
	}
	for name, entry := range extra.Presets {
		catalog.Presets[name] = entry
	}
	return catalog, nil
}

// Names lists the catalog presets plus "default", sorted.
func (c Catalog) Names() []string {
	names := []string{DefaultName}
	for name := range c.Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve builds the selection for name. Fields a catalog entry leaves unset
// come from cfg.Highlights.
func (c Catalog) Resolve(name string, cfg *config.Config) (Selection, error) {
	before, after := cfg.PlaybackPadding()
	sel := Selection{
		Name:       DefaultName,
		Tiered:     cfg.Highlights.Tiered,
		Categories: cfg.Highlights.Categories,
		PadBefore:  before,
		PadAfter:   after,
	}

	key := normalizeName(name)
	if key != "" && key != DefaultName {
		entry, ok := c.Presets[key]
		if !ok {
			return Selection{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownPreset, name, strings.Join(c.Names(), ", "))
		}
		sel.Name = key
		sel.Description = entry.Description
		if entry.Tiered != nil {
			sel.Tiered = *entry.Tiered
		}
		if len(entry.Categories) > 0 {
			sel.Categories = entry.Categories
		}
		if entry.PadBeforeSeconds != nil {
			sel.PadBefore = seconds(*entry.PadBeforeSeconds)
		}
		if entry.PadAfterSeconds != nil {
			sel.PadAfter = seconds(*entry.PadAfterSeconds)
		}
	}

	if err := sel.Tiered.Validate(); err != nil {
		return Selection{}, fmt.Errorf("preset %q: %w", sel.Name, err)
	}
	if err := highlights.ValidateCategories(sel.Categories); err != nil {
		return Selection{}, fmt.Errorf("preset %q: %w", sel.Name, err)
	}
	if sel.PadBefore < 0 || sel.PadAfter < 0 {
		return Selection{}, fmt.Errorf("preset %q: padding must be >= 0", sel.Name)
	}
	return sel, nil
}

// ResolveConfig loads the catalog named by the config and resolves the
// configured preset.
func ResolveConfig(cfg *config.Config) (Selection, error) {
	catalog, err := Load(cfg.Highlights.PresetsFile)
	if err != nil {
		return Selection{}, err
	}
	return catalog.Resolve(cfg.Highlights.Preset, cfg)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}
