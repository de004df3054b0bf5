// Package extraction decodes the audio track of the ingested video into the
// PCM file the classifier reads.
package extraction

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"highlighter/internal/config"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/media/ffmpeg"
	"highlighter/internal/preflight"
	"highlighter/internal/queue"
	"highlighter/internal/services"
	"highlighter/internal/stage"
)

const stageName = "extract"

// Extractor is the extract stage handler.
type Extractor struct {
	cfg    *config.Config
	lib    *library.Library
	logger *slog.Logger
}

// NewExtractor constructs the extract stage handler.
func NewExtractor(cfg *config.Config, lib *library.Library, logger *slog.Logger) *Extractor {
	return &Extractor{cfg: cfg, lib: lib, logger: logging.NewComponentLogger(logger, "extractor")}
}

func (e *Extractor) Prepare(_ context.Context, job *queue.Job) error {
	stage.SetProgress(job, "Extracting audio", 0, "Decoding audio track")
	return nil
}

func (e *Extractor) Execute(ctx context.Context, job *queue.Job) error {
	video := e.lib.Path(job.VideoID, library.VideoFile)
	if err := stage.RequireFile(stageName, video, "video file is missing; re-add the video"); err != nil {
		return err
	}
	if err := preflight.EnsureFreeSpace(e.lib.Dir(job.VideoID), e.cfg.Library.MinFreeSpaceMB); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "check free space", "free disk space below library.min_free_space_mb", err)
	}
	audio := e.lib.Path(job.VideoID, library.AudioFile)
	format := ffmpeg.AudioFormat{
		Codec:      e.cfg.Media.AudioCodec,
		SampleRate: e.cfg.Media.AudioSampleRate,
		Channels:   e.cfg.Media.AudioChannels,
	}

	runCtx := ctx
	if timeout := e.cfg.ToolTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := ffmpeg.ExtractAudio(runCtx, e.cfg.Media.FFmpegBinary, video, audio, format); err != nil {
		_ = os.Remove(audio)
		switch {
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			return err
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return services.Wrap(services.ErrTimeout, stageName, "extract audio", "ffmpeg exceeded media.tool_timeout_seconds", err)
		default:
			return services.Wrap(services.ErrExternalTool, stageName, "extract audio", "ffmpeg could not decode the audio track", err)
		}
	}

	stat, err := os.Stat(audio)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "extract audio", "", err)
	}
	logging.WithContext(ctx, e.logger).Info("audio extracted",
		logging.String("audio_file", audio),
		logging.Int64("bytes", stat.Size()),
		logging.Int("sample_rate", format.SampleRate),
		logging.String(logging.FieldEventType, "audio_extracted"),
	)
	stage.SetProgress(job, "Extracting audio", 100, "Audio extracted")
	return nil
}

func (e *Extractor) HealthCheck(context.Context) stage.Health {
	return stage.CheckBinary(stageName, e.cfg.Media.FFmpegBinary)
}
