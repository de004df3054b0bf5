package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"highlighter/internal/api"
	"highlighter/internal/config"
	"highlighter/internal/logging"
	"highlighter/internal/queue"
)

// multipartOverhead is allowed on top of library.max_upload_mb for form
// boundaries and headers.
const multipartOverhead = 1 << 20

type apiServer struct {
	bind      string
	videosDir string
	maxUpload int64
	logger    *slog.Logger
	daemon    *Daemon
	queueSvc  *api.QueueService
	videoSvc  *api.VideoService

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:      strings.TrimSpace(cfg.Paths.APIBind),
		videosDir: cfg.Paths.VideosDir,
		maxUpload: cfg.MaxUploadBytes(),
		logger:    logging.NewComponentLogger(logger, "api-server"),
		daemon:    d,
		queueSvc:  d.queue,
		videoSvc:  d.videos,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		// No read or write timeout: uploads and video playback are long-lived.
		IdleTimeout: 60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/queue", s.handleQueue)
	mux.HandleFunc("POST /api/queue/{id}/retry", s.handleQueueRetry)
	mux.HandleFunc("GET /api/videos", s.handleVideos)
	mux.HandleFunc("POST /api/videos", s.handleUpload)
	mux.HandleFunc("POST /api/videos/link", s.handleAddLink)
	mux.HandleFunc("GET /api/videos/{id}", s.handleVideo)
	mux.HandleFunc("DELETE /api/videos/{id}", s.handleRemoveVideo)
	mux.HandleFunc("GET /api/videos/{id}/scores", s.handleScores)
	mux.HandleFunc("GET /api/videos/{id}/highlights", s.handleHighlights)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", staticFiles(s.videosDir)))
	return withRequestContext(s.logger, mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.listener = nil
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		VideosDir:    s.videosDir,
		Preset:       s.daemon.cfg.Highlights.Preset,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Dependencies: status.Dependencies,
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, err := queue.ParseStatus(value)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %w", api.ErrInvalidInput, err))
			return
		}
		statuses = append(statuses, status)
	}
	jobs, err := s.queueSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": jobs})
}

func (s *apiServer) handleQueueRetry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: job id must be a number", api.ErrInvalidInput))
		return
	}
	result, err := s.queueSvc.Retry(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.videoSvc.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, videos)
}

func (s *apiServer) handleVideo(w http.ResponseWriter, r *http.Request) {
	video, err := s.videoSvc.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, video)
}

func (s *apiServer) handleRemoveVideo(w http.ResponseWriter, r *http.Request) {
	if err := s.videoSvc.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.videoSvc.Scores(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scores)
}

func (s *apiServer) handleHighlights(w http.ResponseWriter, r *http.Request) {
	report, err := s.videoSvc.Highlights(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *apiServer) handleAddLink(w http.ResponseWriter, r *http.Request) {
	var req api.AddLinkRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode body: %v", api.ErrInvalidInput, err))
		return
	}
	video, err := s.videoSvc.AddLink(r.Context(), req.Link)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, video)
}

// handleUpload streams the "file" part of a multipart form straight into
// the uploads directory.
func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: expected multipart/form-data: %v", api.ErrInvalidInput, err))
		return
	}
	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.writeError(w, r, fmt.Errorf("%w: no file was uploaded", api.ErrInvalidInput))
				return
			}
			s.writeError(w, r, fmt.Errorf("%w: read form: %w", api.ErrInvalidInput, err))
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		video, err := s.videoSvc.AddUpload(r.Context(), part.FileName(), part.Header.Get("Content-Type"), part)
		_ = part.Close()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, video)
		return
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classifyError(err)
	logger := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("api request failed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	} else {
		logger.Debug("api request rejected",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error(), Kind: kind})
}
