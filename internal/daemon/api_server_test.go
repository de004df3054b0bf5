package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"highlighter/internal/api"
	"highlighter/internal/config"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/preflight"
	"highlighter/internal/queue"
	"highlighter/internal/stage"
	"highlighter/internal/testsupport"
	"highlighter/internal/workflow"
)

type healthyStage struct{}

func (healthyStage) Prepare(context.Context, *queue.Job) error { return nil }
func (healthyStage) Execute(context.Context, *queue.Job) error { return nil }
func (healthyStage) HealthCheck(context.Context) stage.Health  { return stage.Healthy("ingest") }

type apiFixture struct {
	cfg     *config.Config
	store   *queue.Store
	lib     *library.Library
	handler http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	lib := library.New(cfg.Paths.VideosDir, logger)
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{Ingest: healthyStage{}})
	d, err := New(cfg, store, lib, logger, mgr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &apiFixture{cfg: cfg, store: store, lib: lib, handler: d.api.routes()}
}

func (f *apiFixture) do(t *testing.T, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestAPIVideoLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/videos/link", []byte(`{"link":"https://www.twitch.tv/videos/42"}`), "application/json")
	if w.Code != http.StatusCreated {
		t.Fatalf("add link = %d %s", w.Code, w.Body.String())
	}
	created := decode[api.Video](t, w)
	if created.Job == nil || created.Job.Status != "pending" || created.Source.Platform != "twitch" {
		t.Fatalf("created = %+v", created)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}

	w = f.do(t, http.MethodGet, "/api/videos", nil, "")
	if videos := decode[[]api.Video](t, w); w.Code != http.StatusOK || len(videos) != 1 {
		t.Fatalf("list = %d %s", w.Code, w.Body.String())
	}

	path := "/api/videos/" + created.ID
	if w = f.do(t, http.MethodGet, path, nil, ""); w.Code != http.StatusOK {
		t.Fatalf("describe = %d", w.Code)
	}
	if w = f.do(t, http.MethodGet, path+"/scores", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("scores before classify = %d, want 404", w.Code)
	}
	testsupport.WriteScores(t, f.lib.Path(created.ID, "scores_data.json"),
		[]string{"Shout"}, [][]float64{{0.1, 0.9}})
	w = f.do(t, http.MethodGet, path+"/scores", nil, "")
	if scores := decode[api.Scores](t, w); w.Code != http.StatusOK || scores.FrameCount != 2 {
		t.Fatalf("scores = %d %s", w.Code, w.Body.String())
	}
	if w = f.do(t, http.MethodGet, path+"/highlights", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("highlights before generate = %d, want 404", w.Code)
	}

	job, _ := f.store.GetByID(context.Background(), created.Job.ID)
	job.Status = queue.StatusClassifying
	if err := f.store.Update(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if w = f.do(t, http.MethodDelete, path, nil, ""); w.Code != http.StatusConflict {
		t.Fatalf("delete while classifying = %d, want 409", w.Code)
	}
	job.Status = queue.StatusFailed
	if err := f.store.Update(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/queue/%d/retry", job.ID), nil, "")
	if result := decode[api.RetryResults](t, w); w.Code != http.StatusOK || result.UpdatedCount != 1 {
		t.Fatalf("retry = %d %s", w.Code, w.Body.String())
	}
	if w = f.do(t, http.MethodDelete, path, nil, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d %s", w.Code, w.Body.String())
	}
	if w = f.do(t, http.MethodGet, path, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("describe after delete = %d, want 404", w.Code)
	}
}

func TestAPIRejectsBadRequests(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"bad video id", http.MethodGet, "/api/videos/not-an-id", "", http.StatusBadRequest},
		{"bad link", http.MethodPost, "/api/videos/link", `{"link":"ftp://x"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/videos/link", `{"url":"https://x"}`, http.StatusBadRequest},
		{"bad status filter", http.MethodGet, "/api/queue?status=bogus", "", http.StatusBadRequest},
		{"bad job id", http.MethodPost, "/api/queue/abc/retry", "", http.StatusBadRequest},
		{"upload not multipart", http.MethodPost, "/api/videos", "hello", http.StatusBadRequest},
		{"wrong method", http.MethodPut, "/api/videos", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.target, []byte(tt.body), "application/json")
			if w.Code != tt.want {
				t.Fatalf("%s %s = %d, want %d (%s)", tt.method, tt.target, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func multipartBody(t *testing.T, field, filename, contentType string, size int) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{0x42}, size)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestAPIUpload(t *testing.T) {
	f := newAPIFixture(t)
	f.cfg.Library.MaxUploadMB = 1

	tests := []struct {
		name        string
		field       string
		contentType string
		size        int
		want        int
	}{
		{"accepted", "file", "video/mp4", 2048, http.StatusCreated},
		{"unsupported type", "file", "image/png", 16, http.StatusUnsupportedMediaType},
		{"too large", "file", "video/webm", 1<<20 + 10, http.StatusRequestEntityTooLarge},
		{"no file part", "other", "video/mp4", 16, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.field, "clip.mp4", tt.contentType, tt.size)
			w := f.do(t, http.MethodPost, "/api/videos", body, contentType)
			if w.Code != tt.want {
				t.Fatalf("upload = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want != http.StatusCreated {
				if resp := decode[api.ErrorResponse](t, w); resp.Error == "" {
					t.Fatalf("error response without message: %s", w.Body.String())
				}
				return
			}
			video := decode[api.Video](t, w)
			if video.Name != "clip.mp4" || video.Job == nil || !strings.HasPrefix(video.Job.Source, f.cfg.Paths.UploadsDir) {
				t.Fatalf("uploaded video = %+v", video)
			}
		})
	}
}

func TestAPIStatus(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/api/status", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	status := decode[api.DaemonStatus](t, w)
	if status.Running {
		t.Fatal("daemon reported running before Start")
	}
	if len(status.Workflow.StageHealth) != 1 || !status.Workflow.StageHealth[0].Ready {
		t.Fatalf("stage health = %+v", status.Workflow.StageHealth)
	}
	if len(status.Dependencies) == 0 || status.QueueDBPath == "" || status.Preset == "" {
		t.Fatalf("status = %+v", status)
	}
	if _, ok := status.Workflow.QueueStats["pending"]; !ok {
		t.Fatalf("queue stats missing statuses: %v", status.Workflow.QueueStats)
	}
}

func TestStaticUploads(t *testing.T) {
	f := newAPIFixture(t)
	info, err := f.lib.Create("clip.mp4", library.Source{Kind: "file"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.lib.Path(info.ID, library.VideoFile), []byte("videodata"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, http.MethodGet, "/uploads/"+info.ID+"/video.mp4", nil, "")
	if w.Code != http.StatusOK || w.Body.String() != "videodata" {
		t.Fatalf("video = %d %q", w.Code, w.Body.String())
	}
	for _, target := range []string{
		"/uploads/" + info.ID + "/",
		"/uploads/" + info.ID + "/thumbnail.png",
		"/uploads/not-an-id/video.mp4",
		"/uploads/",
	} {
		if w := f.do(t, http.MethodGet, target, nil, ""); w.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", target, w.Code)
		}
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", api.ErrInvalidInput), http.StatusBadRequest},
		{library.ErrInvalidID, http.StatusBadRequest},
		{fmt.Errorf("%w: x", library.ErrNotFound), http.StatusNotFound},
		{api.ErrBusy, http.StatusConflict},
		{api.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{api.ErrUnsupportedType, http.StatusUnsupportedMediaType},
		{preflight.ErrInsufficientSpace, http.StatusInsufficientStorage},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := classifyError(tt.err); got != tt.want {
			t.Errorf("classifyError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
