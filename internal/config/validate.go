package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"highlighter/internal/highlights"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateHighlights(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateClassifier() error {
	if strings.TrimSpace(c.Classifier.Python) == "" {
		return errors.New("classifier.python must be set (or set HIGHLIGHTER_CLASSIFIER_PYTHON)")
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		return errors.New("classifier.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMedia() error {
	for key, value := range map[string]string{
		"media.ffmpeg_binary":  c.Media.FFmpegBinary,
		"media.ffprobe_binary": c.Media.FFprobeBinary,
		"media.ytdlp_binary":   c.Media.YtDlpBinary,
		"media.audio_codec":    c.Media.AudioCodec,
	} {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	if err := ensurePositiveMap(map[string]int{
		"media.audio_sample_rate":        c.Media.AudioSampleRate,
		"media.audio_channels":           c.Media.AudioChannels,
		"media.thumbnail_width":          c.Media.ThumbnailWidth,
		"media.thumbnail_height":         c.Media.ThumbnailHeight,
		"media.tool_timeout_seconds":     c.Media.ToolTimeoutSeconds,
		"media.download_timeout_seconds": c.Media.DownloadTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Media.ThumbnailPosition < 0 || c.Media.ThumbnailPosition > 1 {
		return errors.New("media.thumbnail_position must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateHighlights() error {
	if c.Highlights.PadBeforeSeconds < 0 || c.Highlights.PadAfterSeconds < 0 {
		return errors.New("highlights.pad_before_seconds and pad_after_seconds must be >= 0")
	}
	if err := c.Highlights.Tiered.Validate(); err != nil {
		return fmt.Errorf("highlights.tiered: %w", err)
	}
	if err := highlights.ValidateCategories(c.Highlights.Categories); err != nil {
		return fmt.Errorf("highlights.categories: %w", err)
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if c.Library.RetentionDays < 0 {
		return errors.New("library.retention_days must be >= 0")
	}
	if _, err := cron.ParseStandard(c.Library.CleanupSchedule); err != nil {
		return fmt.Errorf("library.cleanup_schedule: %w", err)
	}
	if c.Library.MaxUploadMB <= 0 {
		return errors.New("library.max_upload_mb must be positive")
	}
	if c.Library.MinFreeSpaceMB < 0 {
		return errors.New("library.min_free_space_mb must be >= 0")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	u, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notifications.NtfyTopic)
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
