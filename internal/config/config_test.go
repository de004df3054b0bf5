package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"highlighter/internal/config"
	"highlighter/internal/highlights"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HIGHLIGHTER_CLASSIFIER_PYTHON", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "highlighter")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.VideosDir != filepath.Join(wantData, "videos") {
		t.Fatalf("unexpected videos dir: %q", cfg.Paths.VideosDir)
	}
	if cfg.Paths.UploadsDir != filepath.Join(wantData, "uploads") {
		t.Fatalf("unexpected uploads dir: %q", cfg.Paths.UploadsDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Classifier.Python != "python" {
		t.Fatalf("expected python fallback, got %q", cfg.Classifier.Python)
	}
	if len(cfg.Highlights.Categories) != len(highlights.DefaultCategories()) {
		t.Fatalf("expected default categories, got %d", len(cfg.Highlights.Categories))
	}
	if cfg.Highlights.Tiered.PartsCount != 3 || cfg.Highlights.Tiered.Tier1SegmentsCount != 9 {
		t.Fatalf("expected default tiered preset, got %+v", cfg.Highlights.Tiered)
	}
	before, after := cfg.PlaybackPadding()
	if before != 4*time.Second || after != 2*time.Second {
		t.Fatalf("unexpected padding %v/%v", before, after)
	}
	if cfg.MaxUploadBytes() != 4096<<20 {
		t.Fatalf("unexpected upload limit %d", cfg.MaxUploadBytes())
	}
	if cfg.RetentionWindow() != 0 {
		t.Fatalf("expected retention disabled by default, got %v", cfg.RetentionWindow())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.VideosDir, cfg.Paths.UploadsDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "highlighter.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Highlights struct {
			PadBeforeSeconds float64               `toml:"pad_before_seconds"`
			Categories       []highlights.Category `toml:"categories"`
		} `toml:"highlights"`
		Workflow struct {
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Highlights.PadBeforeSeconds = 1.5
	custom.Highlights.Categories = []highlights.Category{{Name: "Laughs", TriggerAudioClasses: []string{"Laughter"}}}
	custom.Workflow.HeartbeatInterval = 20
	custom.Workflow.HeartbeatTimeout = 200
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.VideosDir != filepath.Join(tempDir, "data", "videos") {
		t.Fatalf("expected videos dir under custom data dir, got %q", cfg.Paths.VideosDir)
	}
	if cfg.Highlights.PadBeforeSeconds != 1.5 {
		t.Fatalf("expected pad override, got %v", cfg.Highlights.PadBeforeSeconds)
	}
	if len(cfg.Highlights.Categories) != 1 {
		t.Fatalf("expected categories to replace defaults, got %d", len(cfg.Highlights.Categories))
	}
	category := cfg.Highlights.Categories[0]
	if category.SegmentLength != highlights.DefaultSegmentLength || category.Reducer != highlights.DefaultReducer {
		t.Fatalf("expected category defaults to be filled, got %+v", category)
	}
	if cfg.Workflow.HeartbeatInterval != 20 || cfg.Workflow.HeartbeatTimeout != 200 {
		t.Fatalf("unexpected workflow %+v", cfg.Workflow)
	}
}

func TestClassifierPythonFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HIGHLIGHTER_CLASSIFIER_PYTHON", "/opt/venv/bin/python")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	bin, args := cfg.ClassifierCommand()
	if bin != "/opt/venv/bin/python" {
		t.Fatalf("expected env python, got %q", bin)
	}
	if len(args) != 1 || args[0] != "./scripts/yamnet_classifier.py" {
		t.Fatalf("unexpected classifier args %v", args)
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Library.CleanupSchedule != "@daily" {
		t.Fatalf("unexpected cleanup schedule %q", cfg.Library.CleanupSchedule)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"heartbeat ordering", func(c *config.Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval }, "heartbeat_timeout"},
		{"thumbnail position", func(c *config.Config) { c.Media.ThumbnailPosition = 1.5 }, "thumbnail_position"},
		{"cron schedule", func(c *config.Config) { c.Library.CleanupSchedule = "every tuesday" }, "cleanup_schedule"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"tier counts", func(c *config.Config) { c.Highlights.Tiered.Tier2SegmentsCount = 20 }, "highlights.tiered"},
		{"category", func(c *config.Config) { c.Highlights.Categories[0].TriggerAudioClasses = nil }, "highlights.categories"},
		{"classifier timeout", func(c *config.Config) { c.Classifier.TimeoutSeconds = 0 }, "classifier.timeout_seconds"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
		{"ntfy timeout", func(c *config.Config) {
			c.Notifications.NtfyTopic = "https://ntfy.sh/x"
			c.Notifications.RequestTimeout = 0
		}, "notifications.request_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Classifier.Python = "python"
			cfg.Highlights.Tiered = highlights.DefaultPreset()
			cfg.Highlights.Categories = highlights.DefaultCategories()
			cfg.Library.AllowedMIMETypes = []string{"video/mp4"}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q in error, got %v", tc.wantErr, err)
			}
		})
	}
}
