package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"highlighter/internal/config"
	"highlighter/internal/highlights"
	"highlighter/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Highlights.Categories = []highlights.Category{{
		Name:                "emotions",
		Description:         "Top emotional moments",
		TriggerAudioClasses: []string{"Shout", "Screaming"},
		SegmentLength:       30,
		MaxSegments:         2,
		Reducer:             highlights.DefaultReducer,
	}}
	cfg.Highlights.Tiered = highlights.Preset{
		PartsCount:         2,
		Tier1SegmentsCount: 2,
		Tier2SegmentsCount: 1,
		MinSegmentLengthMs: 5000,
		TargetClasses:      []string{"Shout"},
	}

	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

// scoreRows builds a 300-frame matrix with a shout plateau at 40-60.
func scoreRows() ([]string, [][]float64) {
	return []string{"Speech", "Shout", "Screaming"}, [][]float64{
		testsupport.Ramp(300, 0, 0, 0),
		testsupport.Ramp(300, 40, 20, 0.9),
		testsupport.Ramp(300, 200, 20, 0.7),
	}
}
