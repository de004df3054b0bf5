// Package classification runs the external sound-event classifier over the
// extracted audio and verifies that its score files parse into a matrix.
package classification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"highlighter/internal/classifier"
	"highlighter/internal/config"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/queue"
	"highlighter/internal/services"
	"highlighter/internal/stage"
)

const stageName = "classify"

// Runner executes the classifier for one audio file.
type Runner interface {
	Classify(ctx context.Context, audioPath, outDir string) error
}

// Classifier is the classify stage handler.
type Classifier struct {
	cfg    *config.Config
	lib    *library.Library
	runner Runner
	logger *slog.Logger
}

// NewClassifier constructs the classify stage handler around the configured command.
func NewClassifier(cfg *config.Config, lib *library.Library, logger *slog.Logger) *Classifier {
	return NewClassifierWithRunner(cfg, lib, logger, classifier.NewRunner(cfg, logger))
}

// NewClassifierWithRunner allows injecting a Runner (used in tests).
func NewClassifierWithRunner(cfg *config.Config, lib *library.Library, logger *slog.Logger, runner Runner) *Classifier {
	return &Classifier{cfg: cfg, lib: lib, runner: runner, logger: logging.NewComponentLogger(logger, "classification")}
}

func (c *Classifier) Prepare(_ context.Context, job *queue.Job) error {
	stage.SetProgress(job, "Classifying audio", 0, "Running sound-event classifier")
	return nil
}

func (c *Classifier) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, c.logger)
	audio := c.lib.Path(job.VideoID, library.AudioFile)
	if err := stage.RequireFile(stageName, audio, "audio file is missing; retry from extraction"); err != nil {
		return err
	}
	dir := c.lib.Dir(job.VideoID)
	if err := removeScores(dir); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "clear scores", "", err)
	}

	if err := c.runner.Classify(ctx, audio, dir); err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return services.Wrap(services.ErrTimeout, stageName, "run classifier", "classifier exceeded classifier.timeout_seconds", err)
		case errors.Is(err, context.Canceled):
			return err
		default:
			return services.Wrap(services.ErrExternalTool, stageName, "run classifier", "classifier command failed", err)
		}
	}

	m, err := c.lib.ClassifierData(job.VideoID)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "load scores", "classifier output is not a usable score matrix", err)
	}
	logger.Info("classifier output loaded",
		logging.Int("classes", m.ClassCount()),
		logging.Int("frames", m.FrameCount()),
		logging.String(logging.FieldEventType, "scores_loaded"),
	)
	stage.SetProgress(job, "Classifying audio", 100, fmt.Sprintf("%d frames across %d classes", m.FrameCount(), m.ClassCount()))
	return nil
}

func (c *Classifier) HealthCheck(context.Context) stage.Health {
	command, _ := c.cfg.ClassifierCommand()
	if _, err := exec.LookPath(command); err != nil {
		return stage.Unhealthy(stageName, fmt.Sprintf("classifier command %q not found", command))
	}
	if script := c.cfg.Classifier.Script; script != "" {
		if _, err := os.Stat(script); err != nil {
			return stage.Unhealthy(stageName, fmt.Sprintf("classifier script %q not found", script))
		}
	}
	return stage.Healthy(stageName)
}

// removeScores clears output from an earlier run so chunks never mix. Files
// reports the single-file form before chunks, so it is called until empty.
func removeScores(dir string) error {
	for {
		files, err := classifier.Files(dir)
		if errors.Is(err, classifier.ErrNoScores) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, path := range files {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}
}
