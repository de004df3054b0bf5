package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"highlighter/internal/highlights"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	VideosDir  string `toml:"videos_dir"`
	UploadsDir string `toml:"uploads_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Classifier describes how the external sound-event classifier is invoked.
// The command receives the audio file and the output directory as its last
// two arguments and must write scores_data*.json files there.
type Classifier struct {
	Python         string   `toml:"python"`
	Script         string   `toml:"script"`
	ExtraArgs      []string `toml:"extra_args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Media contains external media tool settings.
type Media struct {
	FFmpegBinary           string  `toml:"ffmpeg_binary"`
	FFprobeBinary          string  `toml:"ffprobe_binary"`
	YtDlpBinary            string  `toml:"ytdlp_binary"`
	AudioCodec             string  `toml:"audio_codec"`
	AudioSampleRate        int     `toml:"audio_sample_rate"`
	AudioChannels          int     `toml:"audio_channels"`
	ThumbnailWidth         int     `toml:"thumbnail_width"`
	ThumbnailHeight        int     `toml:"thumbnail_height"`
	ThumbnailPosition      float64 `toml:"thumbnail_position"`
	ToolTimeoutSeconds     int     `toml:"tool_timeout_seconds"`
	DownloadTimeoutSeconds int     `toml:"download_timeout_seconds"`
}

// Highlights configures category selection and the tiered peak preset.
type Highlights struct {
	PresetsFile      string                `toml:"presets_file"`
	Preset           string                `toml:"preset"`
	IncludePeaks     bool                  `toml:"include_peaks"`
	PadBeforeSeconds float64               `toml:"pad_before_seconds"`
	PadAfterSeconds  float64               `toml:"pad_after_seconds"`
	Tiered           highlights.Preset     `toml:"tiered"`
	Categories       []highlights.Category `toml:"categories"`
}

// Library controls the per-video directories and upload acceptance.
type Library struct {
	RetentionDays    int      `toml:"retention_days"`
	CleanupSchedule  string   `toml:"cleanup_schedule"`
	MaxUploadMB      int64    `toml:"max_upload_mb"`
	AllowedMIMETypes []string `toml:"allowed_mime_types"`
	MinFreeSpaceMB   int64    `toml:"min_free_space_mb"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Notifications configures ntfy push messages for finished and failed jobs.
// An empty topic disables them.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	NotifyFailures bool   `toml:"notify_failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for highlighter.
//
// Configuration sections by subsystem:
//   - Paths: data, video, upload, and log directories plus the API bind address
//   - Classifier: external sound-event classifier command
//   - Media: ffmpeg, ffprobe, and yt-dlp settings
//   - Highlights: categories, tiered preset, and playback padding
//   - Library: retention sweep and upload limits
//   - Workflow: daemon polling intervals and timeouts
//   - Notifications: ntfy topic for job alerts
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Classifier    Classifier    `toml:"classifier"`
	Media         Media         `toml:"media"`
	Highlights    Highlights    `toml:"highlights"`
	Library       Library       `toml:"library"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigLocation)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigLocation)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("highlighter.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.VideosDir, c.Paths.UploadsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the SQLite queue database location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.DataDir, "queue.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "highlighter.lock")
}

// ClassifierCommand returns the executable and leading arguments for the classifier.
func (c *Config) ClassifierCommand() (string, []string) {
	args := make([]string, 0, len(c.Classifier.ExtraArgs)+1)
	if c.Classifier.Script != "" {
		args = append(args, c.Classifier.Script)
	}
	args = append(args, c.Classifier.ExtraArgs...)
	return c.Classifier.Python, args
}

// ClassifierTimeout returns the classifier run limit.
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// ToolTimeout returns the limit for a single ffmpeg or ffprobe run.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Media.ToolTimeoutSeconds) * time.Second
}

// DownloadTimeout returns the limit for a single yt-dlp download.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Media.DownloadTimeoutSeconds) * time.Second
}

// PlaybackPadding returns the playback padding applied around highlights.
func (c *Config) PlaybackPadding() (time.Duration, time.Duration) {
	before := time.Duration(c.Highlights.PadBeforeSeconds * float64(time.Second))
	after := time.Duration(c.Highlights.PadAfterSeconds * float64(time.Second))
	return before, after
}

// NotificationTimeout returns the limit for a single ntfy request.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Library.MaxUploadMB << 20
}

// RetentionWindow returns how long finished videos are kept, or zero when
// retention is disabled.
func (c *Config) RetentionWindow() time.Duration {
	if c.Library.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.Library.RetentionDays) * 24 * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
