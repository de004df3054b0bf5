package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"highlighter/internal/highlights"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeClassifier()
	c.normalizeMedia()
	if err := c.normalizeHighlights(); err != nil {
		return err
	}
	c.normalizeLibrary()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.VideosDir) == "" {
		c.Paths.VideosDir = filepath.Join(c.Paths.DataDir, "videos")
	}
	if c.Paths.VideosDir, err = expandPath(c.Paths.VideosDir); err != nil {
		return fmt.Errorf("paths.videos_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadsDir) == "" {
		c.Paths.UploadsDir = filepath.Join(c.Paths.DataDir, "uploads")
	}
	if c.Paths.UploadsDir, err = expandPath(c.Paths.UploadsDir); err != nil {
		return fmt.Errorf("paths.uploads_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeClassifier() {
	c.Classifier.Python = strings.TrimSpace(c.Classifier.Python)
	if c.Classifier.Python == "" {
		if value, ok := os.LookupEnv("HIGHLIGHTER_CLASSIFIER_PYTHON"); ok {
			c.Classifier.Python = strings.TrimSpace(value)
		}
	}
	if c.Classifier.Python == "" {
		c.Classifier.Python = defaultClassifierPython
	}
	c.Classifier.Script = strings.TrimSpace(c.Classifier.Script)
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	c.Media.YtDlpBinary = strings.TrimSpace(c.Media.YtDlpBinary)
	c.Media.AudioCodec = strings.ToLower(strings.TrimSpace(c.Media.AudioCodec))
}

func (c *Config) normalizeHighlights() error {
	if c.Highlights.PresetsFile != "" {
		expanded, err := expandPath(c.Highlights.PresetsFile)
		if err != nil {
			return fmt.Errorf("highlights.presets_file: %w", err)
		}
		c.Highlights.PresetsFile = expanded
	}
	c.Highlights.Preset = strings.ToLower(strings.TrimSpace(c.Highlights.Preset))
	if c.Highlights.Preset == "" {
		c.Highlights.Preset = defaultPresetName
	}

	defaults := highlights.DefaultPreset()
	tiered := &c.Highlights.Tiered
	if tiered.PartsCount == 0 {
		tiered.PartsCount = defaults.PartsCount
	}
	if tiered.Tier1SegmentsCount == 0 {
		tiered.Tier1SegmentsCount = defaults.Tier1SegmentsCount
	}
	if tiered.Tier2SegmentsCount == 0 {
		tiered.Tier2SegmentsCount = defaults.Tier2SegmentsCount
	}
	if tiered.MinSegmentLengthMs == 0 {
		tiered.MinSegmentLengthMs = defaults.MinSegmentLengthMs
	}
	if len(tiered.TargetClasses) == 0 {
		tiered.TargetClasses = defaults.TargetClasses
	}

	if len(c.Highlights.Categories) == 0 {
		c.Highlights.Categories = highlights.DefaultCategories()
	}
	for i := range c.Highlights.Categories {
		c.Highlights.Categories[i] = c.Highlights.Categories[i].Normalize()
	}
	return nil
}

func (c *Config) normalizeLibrary() {
	c.Library.CleanupSchedule = strings.TrimSpace(c.Library.CleanupSchedule)
	if c.Library.CleanupSchedule == "" {
		c.Library.CleanupSchedule = defaultCleanupSchedule
	}
	if len(c.Library.AllowedMIMETypes) == 0 {
		c.Library.AllowedMIMETypes = append([]string(nil), defaultAllowedMIMETypes...)
	}
	for i, value := range c.Library.AllowedMIMETypes {
		c.Library.AllowedMIMETypes[i] = strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("HIGHLIGHTER_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
