package library

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"highlighter/internal/highlights"
	"highlighter/internal/logging"
	"highlighter/internal/testsupport"
)

func newTestLibrary(t *testing.T, now time.Time) *Library {
	t.Helper()
	lib := New(t.TempDir(), logging.NewNop())
	lib.now = func() time.Time { return now }
	return lib
}

func TestNewIDFormat(t *testing.T) {
	now := time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC)
	id := NewID(now)
	if !strings.HasPrefix(id, "2026-04-05-1775383200000-") {
		t.Fatalf("unexpected id %q", id)
	}
	if err := ValidateID(id); err != nil {
		t.Fatalf("ValidateID(%q): %v", id, err)
	}
	for _, bad := range []string{"", "../etc", "2026-04-05-1-not-a-uuid", "2026-04-05-1775383200000-" + strings.Repeat("g", 36)} {
		if err := ValidateID(bad); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidID", bad, err)
		}
	}
}

func TestCreateGetUpdate(t *testing.T) {
	now := time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC)
	lib := newTestLibrary(t, now)

	info, err := lib.Create("match.mp4", Source{Kind: "file", Location: "/uploads/match.mp4"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	testsupport.WriteFile(t, lib.Path(info.ID, VideoFile), 16)

	got, err := lib.Get(info.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "match.mp4" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected info: %+v", got)
	}
	if !got.HasFile(VideoFile) || got.HasFile(InfoFile) {
		t.Fatalf("unexpected files: %v", got.Files)
	}

	updated, err := lib.UpdateInfo(info.ID, func(i *Info) {
		i.DurationSeconds = 93.5
		i.Title = "Semi final"
	})
	if err != nil {
		t.Fatalf("UpdateInfo: %v", err)
	}
	if updated.DisplayName() != "Semi final" {
		t.Fatalf("DisplayName = %q", updated.DisplayName())
	}
	got, _ = lib.Get(info.ID)
	if got.DurationSeconds != 93.5 {
		t.Fatalf("duration not persisted: %+v", got)
	}

	raw, _ := os.ReadFile(lib.Path(info.ID, InfoFile))
	if strings.Contains(string(raw), `"files"`) {
		t.Fatalf("files should not be persisted: %s", raw)
	}
}

func TestGetErrors(t *testing.T) {
	lib := newTestLibrary(t, time.Now())
	if _, err := lib.Get("../../etc"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := lib.Get(NewID(time.Now())); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirstAndSkipsBroken(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lib := newTestLibrary(t, base)

	first, _ := lib.Create("a.mp4", Source{Kind: "file"})
	lib.now = func() time.Time { return base.Add(time.Hour) }
	second, _ := lib.Create("b.mp4", Source{Kind: "file"})

	broken := NewID(base.Add(2 * time.Hour))
	if err := os.MkdirAll(lib.Dir(broken), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lib.Path(broken, InfoFile), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(lib.Root(), "not-a-video"), 0o755); err != nil {
		t.Fatal(err)
	}

	videos, err := lib.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(videos) != 2 || videos[0].ID != second.ID || videos[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", videos)
	}
}

func TestListMissingRoot(t *testing.T) {
	lib := New(filepath.Join(t.TempDir(), "missing"), nil)
	videos, err := lib.List()
	if err != nil || len(videos) != 0 {
		t.Fatalf("List = %v, %v", videos, err)
	}
}

func TestRemove(t *testing.T) {
	lib := newTestLibrary(t, time.Now())
	info, _ := lib.Create("a.mp4", Source{Kind: "file"})
	if err := lib.Remove(info.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := lib.Remove(info.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Remove = %v, want ErrNotFound", err)
	}
}

func TestHighlightsRoundTripAndScores(t *testing.T) {
	lib := newTestLibrary(t, time.Now())
	info, _ := lib.Create("a.mp4", Source{Kind: "file"})

	if _, err := lib.ClassifierData(info.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before classification, got %v", err)
	}
	testsupport.WriteScores(t, lib.Path(info.ID, "scores_data.json"), []string{"Shout"}, [][]float64{{0.2, 0.8, 0.1}})
	m, err := lib.ClassifierData(info.ID)
	if err != nil || m.FrameCount() != 3 {
		t.Fatalf("ClassifierData = %v", err)
	}

	if _, err := lib.ReadHighlights(info.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	report := highlights.Report{DurationSeconds: 3, FrameCount: 3, SecondsPerFrame: 1}
	if err := lib.WriteHighlights(info.ID, report); err != nil {
		t.Fatalf("WriteHighlights: %v", err)
	}
	got, err := lib.ReadHighlights(info.ID)
	if err != nil || got.FrameCount != 3 || got.DurationSeconds != 3 {
		t.Fatalf("ReadHighlights = %+v, %v", got, err)
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	lib := newTestLibrary(t, now.AddDate(0, 0, -40))
	old, _ := lib.Create("old.mp4", Source{Kind: "file"})
	lib.now = func() time.Time { return now.AddDate(0, 0, -1) }
	if _, err := lib.Create("new.mp4", Source{Kind: "file"}); err != nil {
		t.Fatal(err)
	}
	lib.now = func() time.Time { return now }

	expired, err := lib.Expired(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Expired: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != old.ID {
		t.Fatalf("Expired = %+v", expired)
	}
	if none, _ := lib.Expired(0); len(none) != 0 {
		t.Fatal("zero retention should expire nothing")
	}
}
