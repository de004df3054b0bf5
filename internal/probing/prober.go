// Package probing inspects the ingested video with ffprobe, records duration
// and stream metadata in info.json, and renders the library thumbnail.
package probing

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"highlighter/internal/config"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/media/ffmpeg"
	"highlighter/internal/media/ffprobe"
	"highlighter/internal/queue"
	"highlighter/internal/services"
	"highlighter/internal/stage"
)

const stageName = "probe"

// Prober is the probe stage handler.
type Prober struct {
	cfg    *config.Config
	lib    *library.Library
	logger *slog.Logger
}

// NewProber constructs the probe stage handler.
func NewProber(cfg *config.Config, lib *library.Library, logger *slog.Logger) *Prober {
	return &Prober{cfg: cfg, lib: lib, logger: logging.NewComponentLogger(logger, "prober")}
}

func (p *Prober) Prepare(_ context.Context, job *queue.Job) error {
	stage.SetProgress(job, "Probing", 0, "Reading video streams")
	return nil
}

func (p *Prober) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, p.logger)
	video := p.lib.Path(job.VideoID, library.VideoFile)
	if err := stage.RequireFile(stageName, video, "video file is missing; re-add the video"); err != nil {
		return err
	}

	probeCtx, cancel := p.toolContext(ctx)
	result, err := ffprobe.Inspect(probeCtx, p.cfg.Media.FFprobeBinary, video)
	cancel()
	if err != nil {
		return toolError(err, "ffprobe", "inspect video", "ffprobe could not read the video")
	}
	if _, ok := result.Audio(); !ok {
		return services.Wrap(services.ErrValidation, stageName, "inspect video",
			"video has no audio stream to classify", errors.New("no audio stream"))
	}

	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		duration = 0
		logging.WarnWithContext(logger, "video duration unknown", "probe_duration_missing",
			logging.String(logging.FieldImpact, "highlights will carry frame indexes without clock times"),
		)
	}
	stage.SetProgress(job, "Probing", 50, "Rendering thumbnail")

	p.renderThumbnail(ctx, logger, job.VideoID, video, duration)

	title := result.Title()
	if title != "" && job.Title == "" {
		job.Title = title
	}
	if _, err := p.lib.UpdateInfo(job.VideoID, func(info *library.Info) {
		info.DurationSeconds = duration
		if size := result.SizeBytes(); size > 0 {
			info.Size = size
		}
		info.Metadata = result.RawJSON()
		if title != "" && info.Title == "" {
			info.Title = title
		}
	}); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "update info", "", err)
	}

	logger.Info("video probed",
		logging.Float64("duration_seconds", duration),
		logging.Int("streams", len(result.Streams)),
		logging.String(logging.FieldEventType, "probe_complete"),
	)
	stage.SetProgress(job, "Probing", 100, "Video probed")
	return nil
}

// renderThumbnail is best effort; a missing thumbnail never fails the job.
func (p *Prober) renderThumbnail(ctx context.Context, logger *slog.Logger, id, video string, duration float64) {
	at := 0.0
	if duration > 0 {
		at = duration * p.cfg.Media.ThumbnailPosition
	}
	thumbCtx, cancel := p.toolContext(ctx)
	defer cancel()
	err := ffmpeg.Thumbnail(thumbCtx, p.cfg.Media.FFmpegBinary, video, p.lib.Path(id, library.ThumbnailFile),
		at, p.cfg.Media.ThumbnailWidth, p.cfg.Media.ThumbnailHeight)
	if err != nil {
		logging.WarnWithContext(logger, "thumbnail generation failed", "thumbnail_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "video is listed without a preview image"),
			logging.String(logging.FieldErrorHint, "check media.ffmpeg_binary"),
		)
	}
}

func (p *Prober) toolContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := p.cfg.ToolTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func (p *Prober) HealthCheck(context.Context) stage.Health {
	if h := stage.CheckBinary(stageName, p.cfg.Media.FFprobeBinary); !h.Ready {
		return h
	}
	return stage.CheckBinary(stageName, p.cfg.Media.FFmpegBinary)
}

// toolError wraps an external tool failure, keeping cancellation and
// timeouts distinguishable.
func toolError(err error, tool, operation, message string) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stageName, operation, tool+" exceeded media.tool_timeout_seconds", err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, operation, message, err)
	}
}
