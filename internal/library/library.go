package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"highlighter/internal/classifier"
	"highlighter/internal/highlights"
	"highlighter/internal/logging"
)

// ErrNotFound is returned when a video directory or file does not exist.
var ErrNotFound = errors.New("video not found")

// Library reads and writes video directories under Root.
type Library struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// New returns a Library rooted at root.
func New(root string, logger *slog.Logger) *Library {
	return &Library{
		root:   root,
		logger: logging.NewComponentLogger(logger, "library"),
		now:    time.Now,
	}
}

// Root returns the videos directory.
func (l *Library) Root() string { return l.root }

// Dir returns the directory for id. Callers must validate id first.
func (l *Library) Dir(id string) string { return filepath.Join(l.root, id) }

// Path returns a file inside the directory for id.
func (l *Library) Path(id, name string) string { return filepath.Join(l.root, id, name) }

// Create allocates a new video directory and writes its initial info.json.
func (l *Library) Create(name string, src Source) (Info, error) {
	now := l.now().UTC()
	info := Info{
		ID:        NewID(now),
		Name:      strings.TrimSpace(name),
		Source:    src,
		CreatedAt: now,
	}
	if err := os.MkdirAll(l.Dir(info.ID), 0o755); err != nil {
		return Info{}, fmt.Errorf("create video dir: %w", err)
	}
	if err := l.writeInfo(info); err != nil {
		_ = os.RemoveAll(l.Dir(info.ID))
		return Info{}, err
	}
	return info, nil
}

// Get reads info.json for id and lists the directory.
func (l *Library) Get(id string) (Info, error) {
	if err := ValidateID(id); err != nil {
		return Info{}, err
	}
	return l.read(id)
}

func (l *Library) read(id string) (Info, error) {
	data, err := os.ReadFile(l.Path(id, InfoFile))
	if errors.Is(err, os.ErrNotExist) {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Info{}, fmt.Errorf("read info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("decode info for %s: %w", id, err)
	}
	info.ID = id

	entries, err := os.ReadDir(l.Dir(id))
	if err != nil {
		return Info{}, fmt.Errorf("list video dir: %w", err)
	}
	info.Files = info.Files[:0]
	for _, entry := range entries {
		if name := entry.Name(); name != InfoFile && !strings.HasPrefix(name, ".") {
			info.Files = append(info.Files, name)
		}
	}
	return info, nil
}

// List returns every readable video, newest first. Unreadable directories are
// logged and skipped.
func (l *Library) List() ([]Info, error) {
	entries, err := os.ReadDir(l.root)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	videos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || ValidateID(entry.Name()) != nil {
			continue
		}
		info, err := l.read(entry.Name())
		if err != nil {
			logging.WarnWithContext(l.logger, "skipping unreadable video directory", "library_skip",
				logging.String("video_dir", entry.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the directory or restore its info.json"),
			)
			continue
		}
		videos = append(videos, info)
	}
	slices.SortFunc(videos, func(a, b Info) int {
		return strings.Compare(b.ID, a.ID)
	})
	return videos, nil
}

// Remove deletes the directory for id.
func (l *Library) Remove(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if _, err := os.Stat(l.Dir(id)); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.RemoveAll(l.Dir(id)); err != nil {
		return fmt.Errorf("remove video: %w", err)
	}
	return nil
}

// UpdateInfo applies fn to the stored info and writes it back. Updates for
// the same library are serialized.
func (l *Library) UpdateInfo(id string, fn func(*Info)) (Info, error) {
	if err := ValidateID(id); err != nil {
		return Info{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := l.read(id)
	if err != nil {
		return Info{}, err
	}
	fn(&info)
	info.ID = id
	if err := l.writeInfo(info); err != nil {
		return Info{}, err
	}
	return info, nil
}

func (l *Library) writeInfo(info Info) error {
	info.Files = nil
	return writeJSON(l.Path(info.ID, InfoFile), info)
}

// ClassifierData loads the classifier scores for id.
func (l *Library) ClassifierData(id string) (*highlights.Matrix, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	m, err := classifier.LoadDir(l.Dir(id))
	if errors.Is(err, classifier.ErrNoScores) || errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no scores for %s", ErrNotFound, id)
	}
	return m, err
}

// WriteHighlights stores the report as highlights.json.
func (l *Library) WriteHighlights(id string, report highlights.Report) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	return writeJSON(l.Path(id, HighlightsFile), report)
}

// ReadHighlights loads highlights.json for id.
func (l *Library) ReadHighlights(id string) (highlights.Report, error) {
	if err := ValidateID(id); err != nil {
		return highlights.Report{}, err
	}
	data, err := os.ReadFile(l.Path(id, HighlightsFile))
	if errors.Is(err, os.ErrNotExist) {
		return highlights.Report{}, fmt.Errorf("%w: no highlights for %s", ErrNotFound, id)
	}
	if err != nil {
		return highlights.Report{}, err
	}
	var report highlights.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return highlights.Report{}, fmt.Errorf("decode highlights: %w", err)
	}
	return report, nil
}

// Expired returns videos created before now-olderThan, oldest first.
func (l *Library) Expired(olderThan time.Duration) ([]Info, error) {
	if olderThan <= 0 {
		return nil, nil
	}
	videos, err := l.List()
	if err != nil {
		return nil, err
	}
	cutoff := l.now().Add(-olderThan)
	var expired []Info
	for i := len(videos) - 1; i >= 0; i-- {
		if videos[i].CreatedAt.Before(cutoff) {
			expired = append(expired, videos[i])
		}
	}
	return expired, nil
}

// writeJSON replaces path atomically.
func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
