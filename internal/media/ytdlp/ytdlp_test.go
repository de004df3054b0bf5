package ytdlp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"highlighter/internal/testsupport"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		link     string
		platform string
		id       string
		url      string
		wantErr  bool
	}{
		{link: "https://www.twitch.tv/videos/2112233", platform: PlatformTwitch, id: "2112233", url: "https://www.twitch.tv/videos/2112233"},
		{link: " http://m.twitch.tv/videos/42/ ", platform: PlatformTwitch, id: "42", url: "https://www.twitch.tv/videos/42"},
		{link: "https://twitch.tv/somechannel", platform: PlatformWeb, url: "https://twitch.tv/somechannel"},
		{link: "https://example.com/clip.mp4", platform: PlatformWeb, url: "https://example.com/clip.mp4"},
		{link: "ftp://example.com/clip.mp4", wantErr: true},
		{link: "not a url", wantErr: true},
		{link: "https://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			src, err := ParseLink(tt.link)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLink) {
					t.Fatalf("expected ErrInvalidLink, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLink: %v", err)
			}
			if src.Platform != tt.platform || src.ID != tt.id || src.URL != tt.url {
				t.Fatalf("ParseLink = %+v", src)
			}
		})
	}
}

func TestDownloadReturnsTitle(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "yt-dlp")
	testsupport.WriteScript(t, script, `while [ "$1" != "-o" ]; do shift; done
printf video > "$2"
echo "Grand Final VOD"`)

	out := filepath.Join(dir, "video.mp4")
	title, err := Download(context.Background(), script, Source{Platform: PlatformTwitch, URL: "https://www.twitch.tv/videos/1"}, out, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if title != "Grand Final VOD" {
		t.Fatalf("title = %q", title)
	}
}

func TestDownloadFailure(t *testing.T) {
	script := filepath.Join(t.TempDir(), "yt-dlp")
	testsupport.WriteScript(t, script, `echo "progress" >&2; echo "ERROR: Video unavailable" >&2; exit 1`)

	_, err := Download(context.Background(), script, Source{URL: "https://example.com/x"}, filepath.Join(t.TempDir(), "v.mp4"), nil)
	if err == nil || !strings.Contains(err.Error(), "Video unavailable") {
		t.Fatalf("expected yt-dlp error, got %v", err)
	}
}

func TestDownloadReportsProgress(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "yt-dlp")
	testsupport.WriteScript(t, script, `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
echo "progress:  12.5%"
echo "progress: n/a"
echo "progress: 100.0%"
printf video > "$out"
echo "Semi Final"`)

	var got []float64
	title, err := Download(context.Background(), script, Source{URL: "https://example.com/v"}, filepath.Join(dir, "video.mp4"), func(p float64) {
		got = append(got, p)
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if title != "Semi Final" {
		t.Fatalf("title = %q", title)
	}
	if len(got) != 2 || got[0] != 12.5 || got[1] != 100 {
		t.Fatalf("progress = %v, want [12.5 100]", got)
	}
}
