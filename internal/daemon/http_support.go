package daemon

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"highlighter/internal/api"
	"highlighter/internal/highlights"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/preflight"
	"highlighter/internal/services"
)

// classifyError maps service errors to an HTTP status and a short kind.
func classifyError(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, api.ErrInvalidInput), errors.Is(err, library.ErrInvalidID):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, api.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, api.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, api.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_type"
	case errors.Is(err, preflight.ErrInsufficientSpace):
		return http.StatusInsufficientStorage, "insufficient_space"
	case errors.Is(err, highlights.ErrInvalidMatrix):
		return http.StatusUnprocessableEntity, "invalid_scores"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// staticFiles serves video directory files. Directory listings and dot
// files are not exposed.
func staticFiles(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") || strings.Contains(name, "/.") {
			http.NotFound(w, r)
			return
		}
		parts := strings.Split(strings.TrimPrefix(name, "/"), "/")
		if len(parts) != 2 || library.ValidateID(parts[0]) != nil {
			http.NotFound(w, r)
			return
		}
		if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(name))); err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestContext tags each request with a correlation id, allows
// cross-origin reads from the web UI, and logs the outcome at debug level.
func withRequestContext(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("Access-Control-Allow-Origin", "*")

		ctx := services.WithRequestID(r.Context(), requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		logging.WithContext(ctx, logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(started)),
		)
	})
}
