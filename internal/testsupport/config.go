package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"highlighter/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a fresh temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.VideosDir = filepath.Join(base, "data", "videos")
	cfgVal.Paths.UploadsDir = filepath.Join(base, "data", "uploads")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Classifier.Python = "python3"
	cfgVal.Library.MinFreeSpaceMB = 0

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithStubbedBinaries writes executables that exit 0 for the given names,
// prepends their directory to PATH, and points the media config at them.
// With no names, ffmpeg, ffprobe, and yt-dlp are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "yt-dlp"}
		}
		for _, name := range names {
			WriteScript(b.t, filepath.Join(b.binDir(), name), "exit 0")
		}
		b.t.Setenv("PATH", b.binDir()+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithScript installs a shell script as the named binary and wires it into
// the matching config field when the name is a known tool.
func WithScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.binDir(), name)
		WriteScript(b.t, path, body)
		switch name {
		case "ffmpeg":
			b.cfg.Media.FFmpegBinary = path
		case "ffprobe":
			b.cfg.Media.FFprobeBinary = path
		case "yt-dlp":
			b.cfg.Media.YtDlpBinary = path
		case "classifier":
			b.cfg.Classifier.Python = path
			b.cfg.Classifier.Script = ""
		}
	}
}

func (b *configBuilder) binDir() string {
	dir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	return dir
}

// BaseDir returns the temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
