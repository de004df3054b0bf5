package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"highlighter/internal/config"
	"highlighter/internal/fileutil"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/media/ytdlp"
	"highlighter/internal/queue"
	"highlighter/internal/services"
	"highlighter/internal/stage"
)

const stageName = "ingest"

// DownloadFunc fetches a parsed link into outPath and returns its title.
// onProgress may be nil.
type DownloadFunc func(ctx context.Context, binary string, src ytdlp.Source, outPath string, onProgress func(percent float64)) (string, error)

// Ingester is the ingest stage handler.
type Ingester struct {
	cfg      *config.Config
	lib      *library.Library
	logger   *slog.Logger
	download DownloadFunc
	progress stage.ProgressStore
}

// NewIngester constructs the ingest stage handler.
func NewIngester(cfg *config.Config, lib *library.Library, logger *slog.Logger) *Ingester {
	return NewIngesterWithDownloader(cfg, lib, logger, ytdlp.Download)
}

// NewIngesterWithDownloader allows replacing yt-dlp (used in tests).
func NewIngesterWithDownloader(cfg *config.Config, lib *library.Library, logger *slog.Logger, download DownloadFunc) *Ingester {
	return &Ingester{
		cfg:      cfg,
		lib:      lib,
		logger:   logging.NewComponentLogger(logger, "ingester"),
		download: download,
	}
}

// WithProgressStore persists download progress while a link is fetched.
func (i *Ingester) WithProgressStore(store stage.ProgressStore) *Ingester {
	i.progress = store
	return i
}

func (i *Ingester) Prepare(_ context.Context, job *queue.Job) error {
	message := "Copying video into library"
	if job.SourceKind == queue.SourceLink {
		message = "Downloading video"
	}
	stage.SetProgress(job, "Ingesting", 0, message)
	return nil
}

func (i *Ingester) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, i.logger)
	if err := library.ValidateID(job.VideoID); err != nil {
		return services.Wrap(services.ErrValidation, stageName, "validate job", "job references an invalid video id", err)
	}
	if _, err := i.lib.Get(job.VideoID); err != nil {
		return services.Wrap(services.ErrNotFound, stageName, "load video", "video directory was removed; re-add the video", err)
	}

	target := i.lib.Path(job.VideoID, library.VideoFile)
	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		logger.Info("video already ingested", logging.String("video_file", target))
		return i.finish(job, info.Size(), "", "")
	}

	switch job.SourceKind {
	case queue.SourceLink:
		return i.ingestLink(ctx, logger, job, target)
	case queue.SourceFile:
		return i.ingestFile(logger, job, target)
	default:
		return services.Wrap(services.ErrValidation, stageName, "validate job",
			"unknown source kind", fmt.Errorf("source kind %q", job.SourceKind))
	}
}

func (i *Ingester) ingestLink(ctx context.Context, logger *slog.Logger, job *queue.Job, target string) error {
	src, err := ytdlp.ParseLink(job.Source)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "parse link", "link is not a downloadable URL", err)
	}
	if timeout := i.cfg.DownloadTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Info("downloading video",
		logging.String("url", src.URL),
		logging.String("platform", src.Platform),
		logging.String(logging.FieldEventType, "download_start"),
	)
	title, err := i.download(ctx, i.cfg.Media.YtDlpBinary, src, target, i.downloadProgress(ctx, logger, job))
	if err != nil {
		_ = os.Remove(target)
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, stageName, "download", "download exceeded media.download_timeout_seconds", err)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return services.Wrap(services.ErrExternalTool, stageName, "download", "yt-dlp could not fetch the video", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "download", "yt-dlp reported success without writing the video", err)
	}
	return i.finish(job, info.Size(), title, src.Platform)
}

// downloadProgress samples yt-dlp progress into 10% steps before logging and
// persisting it.
func (i *Ingester) downloadProgress(ctx context.Context, logger *slog.Logger, job *queue.Job) func(float64) {
	sampler := logging.NewProgressSampler(10)
	return func(percent float64) {
		if !sampler.ShouldLog(percent, "download") {
			return
		}
		logger.Debug("download progress", logging.Float64("percent", percent))
		stage.SetProgress(job, "Ingesting", percent, "Downloading video")
		if i.progress == nil {
			return
		}
		if err := i.progress.UpdateProgress(ctx, job); err != nil {
			logging.WarnWithContext(logger, "failed to persist download progress", "progress_update_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "queue shows stale download progress"),
			)
		}
	}
}

func (i *Ingester) ingestFile(logger *slog.Logger, job *queue.Job, target string) error {
	source := strings.TrimSpace(job.Source)
	if err := stage.RequireFile(stageName, source, "source file is missing; re-add the video"); err != nil {
		return err
	}

	move := fileutil.Within(i.cfg.Paths.UploadsDir, source)
	var (
		written int64
		err     error
	)
	if move {
		written, err = fileutil.MoveFile(source, target)
	} else {
		written, err = fileutil.CopyFile(source, target)
	}
	if err != nil {
		return services.Wrap(services.ErrTransient, stageName, "store video", "could not place the video in the library", err)
	}
	logger.Info("video stored",
		logging.String("source", source),
		logging.Bool("moved", move),
		logging.Int64("bytes", written),
		logging.String(logging.FieldEventType, "video_stored"),
	)
	return i.finish(job, written, "", "")
}

func (i *Ingester) finish(job *queue.Job, size int64, title, platform string) error {
	if title != "" && strings.TrimSpace(job.Title) == "" {
		job.Title = title
	}
	_, err := i.lib.UpdateInfo(job.VideoID, func(info *library.Info) {
		info.Size = size
		if title != "" && info.Title == "" {
			info.Title = title
		}
		if platform != "" {
			info.Source.Platform = platform
		}
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, stageName, "update info", "", err)
	}
	stage.SetProgress(job, "Ingesting", 100, "Video stored")
	return nil
}

func (i *Ingester) HealthCheck(context.Context) stage.Health {
	if h := stage.CheckBinary(stageName, i.cfg.Media.YtDlpBinary); !h.Ready {
		h.Detail += " (links cannot be ingested)"
		return h
	}
	return stage.Healthy(stageName)
}
