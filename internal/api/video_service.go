package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"highlighter/internal/config"
	"highlighter/internal/highlights"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/media/ytdlp"
	"highlighter/internal/preflight"
	"highlighter/internal/queue"
)

// videoExtensions are the container extensions accepted for local files.
var videoExtensions = []string{".mp4", ".avi", ".mpeg", ".mpg", ".webm"}

var uploadNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// VideoService manages library videos and the jobs that process them.
type VideoService struct {
	cfg    *config.Config
	lib    *library.Library
	store  QueueStore
	logger *slog.Logger
	notify func()
}

// NewVideoService constructs a VideoService. notify, when set, is called
// after a job is enqueued.
func NewVideoService(cfg *config.Config, lib *library.Library, store QueueStore, logger *slog.Logger, notify func()) *VideoService {
	return &VideoService{
		cfg:    cfg,
		lib:    lib,
		store:  store,
		logger: logging.NewComponentLogger(logger, "videos"),
		notify: notify,
	}
}

// List returns every library video, newest first, joined with its job.
func (s *VideoService) List(ctx context.Context) ([]Video, error) {
	infos, err := s.lib.List()
	if err != nil {
		return nil, err
	}
	jobs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	byVideo := make(map[string]*queue.Job, len(jobs))
	for _, job := range jobs {
		byVideo[job.VideoID] = job
	}
	videos := make([]Video, 0, len(infos))
	for _, info := range infos {
		videos = append(videos, FromInfo(info, byVideo[info.ID]))
	}
	return videos, nil
}

// Describe returns one video.
func (s *VideoService) Describe(ctx context.Context, id string) (Video, error) {
	info, err := s.lib.Get(id)
	if err != nil {
		return Video{}, inputError(err)
	}
	job, err := s.store.FindByVideoID(ctx, id)
	if err != nil {
		return Video{}, err
	}
	return FromInfo(info, job), nil
}

// AddFile enqueues a local video file. The file is copied into the library
// by the ingest stage, or moved when it lives in the uploads directory.
func (s *VideoService) AddFile(ctx context.Context, path string) (Video, error) {
	abs, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return Video{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	stat, err := os.Stat(abs)
	if err != nil {
		return Video{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !stat.Mode().IsRegular() {
		return Video{}, fmt.Errorf("%w: %s is not a regular file", ErrInvalidInput, abs)
	}
	if !slices.Contains(videoExtensions, strings.ToLower(filepath.Ext(abs))) {
		return Video{}, fmt.Errorf("%w: %s (accepted: %s)", ErrUnsupportedType, filepath.Base(abs), strings.Join(videoExtensions, ", "))
	}
	return s.enqueue(ctx, filepath.Base(abs), library.Source{Kind: string(queue.SourceFile), Location: abs}, queue.SourceFile, abs)
}

// AddLink enqueues a remote video for download.
func (s *VideoService) AddLink(ctx context.Context, link string) (Video, error) {
	src, err := ytdlp.ParseLink(link)
	if err != nil {
		return Video{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	source := library.Source{Kind: string(queue.SourceLink), Location: src.URL, Platform: src.Platform}
	return s.enqueue(ctx, src.URL, source, queue.SourceLink, src.URL)
}

// AddUpload stores an uploaded video in the uploads directory and enqueues
// it. The content type must be one of library.allowed_mime_types and the body
// may not exceed library.max_upload_mb.
func (s *VideoService) AddUpload(ctx context.Context, name, contentType string, body io.Reader) (Video, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !slices.Contains(s.cfg.Library.AllowedMIMETypes, strings.ToLower(mediaType)) {
		return Video{}, fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedType, contentType, strings.Join(s.cfg.Library.AllowedMIMETypes, ", "))
	}
	name = uploadFileName(name)
	if name == "" {
		name = "upload.mp4"
	}

	dir := s.cfg.Paths.UploadsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Video{}, fmt.Errorf("create uploads dir: %w", err)
	}
	if err := preflight.EnsureFreeSpace(dir, s.cfg.Library.MinFreeSpaceMB); err != nil {
		return Video{}, err
	}

	file, err := os.CreateTemp(dir, "upload-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return Video{}, fmt.Errorf("create upload file: %w", err)
	}
	limit := s.cfg.MaxUploadBytes()
	written, copyErr := io.Copy(file, io.LimitReader(body, limit+1))
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(file.Name())
		return Video{}, fmt.Errorf("store upload: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(file.Name())
		return Video{}, fmt.Errorf("store upload: %w", closeErr)
	case written > limit:
		_ = os.Remove(file.Name())
		return Video{}, fmt.Errorf("%w: limit is %d MB", ErrTooLarge, s.cfg.Library.MaxUploadMB)
	case written == 0:
		_ = os.Remove(file.Name())
		return Video{}, fmt.Errorf("%w: upload is empty", ErrInvalidInput)
	}

	s.logger.Info("upload stored",
		logging.String("file_name", name),
		logging.String("upload_path", file.Name()),
		logging.Int64("bytes", written),
		logging.String(logging.FieldEventType, "upload_stored"),
	)
	video, err := s.enqueue(ctx, name, library.Source{Kind: string(queue.SourceFile), Location: name}, queue.SourceFile, file.Name())
	if err != nil {
		_ = os.Remove(file.Name())
		return Video{}, err
	}
	video.Size = written
	return video, nil
}

func (s *VideoService) enqueue(ctx context.Context, name string, src library.Source, kind queue.SourceKind, location string) (Video, error) {
	info, err := s.lib.Create(name, src)
	if err != nil {
		return Video{}, err
	}
	job, err := s.store.NewJob(ctx, info.ID, kind, location, "")
	if err != nil {
		if rmErr := s.lib.Remove(info.ID); rmErr != nil {
			s.logger.Warn("failed to remove orphaned video directory",
				logging.String(logging.FieldVideoID, info.ID),
				logging.Error(rmErr),
			)
		}
		return Video{}, err
	}
	s.logger.Info("video enqueued",
		logging.String(logging.FieldVideoID, info.ID),
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("source_kind", string(kind)),
		logging.String("source", location),
		logging.String(logging.FieldEventType, "video_enqueued"),
	)
	if s.notify != nil {
		s.notify()
	}
	if fresh, err := s.lib.Get(info.ID); err == nil {
		info = fresh
	}
	return FromInfo(info, job), nil
}

// Remove deletes a video directory and its job. Videos a stage is working on
// are refused with ErrBusy.
func (s *VideoService) Remove(ctx context.Context, id string) error {
	if err := library.ValidateID(id); err != nil {
		return inputError(err)
	}
	job, err := s.store.FindByVideoID(ctx, id)
	if err != nil {
		return err
	}
	if job != nil && job.Status.IsProcessing() {
		return fmt.Errorf("%w: job %d is %s", ErrBusy, job.ID, job.Status)
	}
	if job != nil {
		if _, err := s.store.RemoveByVideoID(ctx, id); err != nil {
			return err
		}
	}
	if err := s.lib.Remove(id); err != nil {
		if job != nil && errors.Is(err, library.ErrNotFound) {
			return nil
		}
		return err
	}
	s.logger.Info("video removed",
		logging.String(logging.FieldVideoID, id),
		logging.String(logging.FieldEventType, "video_removed"),
	)
	return nil
}

// Scores returns the classifier matrix for a video.
func (s *VideoService) Scores(_ context.Context, id string) (Scores, error) {
	m, err := s.lib.ClassifierData(id)
	if err != nil {
		return Scores{}, inputError(err)
	}
	return FromMatrix(m), nil
}

// Highlights returns the stored highlight report for a video.
func (s *VideoService) Highlights(_ context.Context, id string) (highlights.Report, error) {
	report, err := s.lib.ReadHighlights(id)
	if err != nil {
		return highlights.Report{}, inputError(err)
	}
	return report, nil
}

// PruneExpired removes videos older than the retention window together with
// their jobs. Videos a stage is working on are skipped.
func (s *VideoService) PruneExpired(ctx context.Context) (int, error) {
	window := s.cfg.RetentionWindow()
	if window <= 0 {
		return 0, nil
	}
	expired, err := s.lib.Expired(window)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, info := range expired {
		if err := s.Remove(ctx, info.ID); err != nil {
			if errors.Is(err, ErrBusy) {
				continue
			}
			logging.WarnWithContext(s.logger, "failed to remove expired video", "retention_failed",
				logging.String(logging.FieldVideoID, info.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the videos directory"),
			)
			continue
		}
		removed++
	}
	return removed, nil
}

func inputError(err error) error {
	if errors.Is(err, library.ErrInvalidID) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

func uploadFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSpace(uploadNameReplacer.Replace(name))
}
