// Package highlighting is the final pipeline stage. It resolves the active
// preset, runs category selection and the tiered peak finder over the
// classifier matrix, and stores the result as highlights.json.
package highlighting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"highlighter/internal/config"
	"highlighter/internal/highlights"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/presets"
	"highlighter/internal/queue"
	"highlighter/internal/services"
	"highlighter/internal/stage"
)

const stageName = "highlight"

// Highlighter is the highlight stage handler.
type Highlighter struct {
	cfg    *config.Config
	lib    *library.Library
	logger *slog.Logger
}

// NewHighlighter constructs the highlight stage handler.
func NewHighlighter(cfg *config.Config, lib *library.Library, logger *slog.Logger) *Highlighter {
	return &Highlighter{cfg: cfg, lib: lib, logger: logging.NewComponentLogger(logger, "highlighter")}
}

func (h *Highlighter) Prepare(_ context.Context, job *queue.Job) error {
	stage.SetProgress(job, "Building highlights", 0, "Selecting segments")
	return nil
}

func (h *Highlighter) Execute(ctx context.Context, job *queue.Job) error {
	report, err := h.Generate(ctx, job.VideoID)
	if err != nil {
		return err
	}
	segments := 0
	for _, c := range report.Categories {
		segments += len(c.Segments)
	}
	stage.SetProgress(job, "Building highlights", 100,
		fmt.Sprintf("%d segments in %d categories, %d peaks", segments, len(report.Categories), len(report.Peaks)))
	return nil
}

// Generate builds and stores the report for videoID using the configured
// preset. It is also used to regenerate highlights outside the pipeline.
func (h *Highlighter) Generate(ctx context.Context, videoID string) (highlights.Report, error) {
	logger := logging.WithContext(ctx, h.logger)

	info, err := h.lib.Get(videoID)
	if err != nil {
		return highlights.Report{}, services.Wrap(services.ErrNotFound, stageName, "load video", "video directory is missing", err)
	}
	m, err := h.lib.ClassifierData(videoID)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return highlights.Report{}, services.Wrap(services.ErrNotFound, stageName, "load scores", "no classifier output; retry from classification", err)
		}
		return highlights.Report{}, services.Wrap(services.ErrValidation, stageName, "load scores", "classifier output is malformed", err)
	}
	sel, err := presets.ResolveConfig(h.cfg)
	if err != nil {
		return highlights.Report{}, services.Wrap(services.ErrConfiguration, stageName, "resolve preset", "check highlights.preset and highlights.presets_file", err)
	}

	report, err := highlights.BuildReport(m, sel.ReportOptions(info.DurationSeconds, h.cfg.Highlights.IncludePeaks))
	if err != nil {
		switch {
		case errors.Is(err, highlights.ErrMissingTriggerClass):
			return highlights.Report{}, services.Wrap(services.ErrValidation, stageName, "build report", "classifier output lacks a configured trigger class", err)
		case errors.Is(err, highlights.ErrInvalidMatrix), errors.Is(err, highlights.ErrInvalidConfig), errors.Is(err, highlights.ErrInvalidRange):
			return highlights.Report{}, services.Wrap(services.ErrValidation, stageName, "build report", "", err)
		default:
			return highlights.Report{}, services.Wrap(services.ErrTransient, stageName, "build report", "", err)
		}
	}
	if err := h.lib.WriteHighlights(videoID, report); err != nil {
		return highlights.Report{}, services.Wrap(services.ErrTransient, stageName, "write report", "", err)
	}

	for _, c := range report.Categories {
		logger.Debug("category selected",
			logging.String("category", c.Category.Name),
			logging.Int("segments", len(c.Segments)),
		)
	}
	logger.Info("highlights written",
		logging.String("preset", sel.Name),
		logging.Int("categories", len(report.Categories)),
		logging.Int("peaks", len(report.Peaks)),
		logging.Int("frames", report.FrameCount),
		logging.String(logging.FieldEventType, "highlights_written"),
	)
	return report, nil
}

func (h *Highlighter) HealthCheck(context.Context) stage.Health {
	if _, err := presets.ResolveConfig(h.cfg); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	return stage.Healthy(stageName)
}
