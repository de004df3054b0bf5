// Package ytdlp downloads remote videos, Twitch VODs in particular, with yt-dlp.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// ErrInvalidLink is returned for links that are not absolute http(s) URLs.
var ErrInvalidLink = errors.New("invalid video link")

const (
	PlatformTwitch = "twitch"
	PlatformWeb    = "web"
)

var twitchVOD = regexp.MustCompile(`^/videos/(\d+)/?$`)

// Source is a parsed download link.
type Source struct {
	Platform string
	ID       string
	URL      string
}

// ParseLink validates link and recognizes Twitch VOD URLs. Any other http(s)
// URL is accepted as PlatformWeb and left for yt-dlp to resolve.
func ParseLink(link string) (Source, error) {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Source{}, fmt.Errorf("%w: scheme must be http or https", ErrInvalidLink)
	}
	if u.Host == "" {
		return Source{}, fmt.Errorf("%w: missing host", ErrInvalidLink)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	if host == "twitch.tv" {
		if match := twitchVOD.FindStringSubmatch(u.Path); match != nil {
			return Source{
				Platform: PlatformTwitch,
				ID:       match[1],
				URL:      "https://www.twitch.tv/videos/" + match[1],
			}, nil
		}
	}
	return Source{Platform: PlatformWeb, URL: u.String()}, nil
}

// progressPrefix marks the lines the progress template below emits.
const progressPrefix = "progress:"

// Download fetches src into outPath as mp4 and returns the title yt-dlp
// reports. onProgress, when set, receives the download percentage as yt-dlp
// prints it.
func Download(ctx context.Context, binary string, src Source, outPath string, onProgress func(percent float64)) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	if src.URL == "" || outPath == "" {
		return "", errors.New("yt-dlp download: url and output path are required")
	}

	cmd := exec.CommandContext(ctx, binary,
		"--no-playlist",
		"--newline",
		"--progress",
		"--progress-template", "download:"+progressPrefix+"%(progress._percent_str)s",
		"--no-simulate",
		"--print", "title",
		"-f", "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/bv*+ba/b",
		"--merge-output-format", "mp4",
		"-o", outPath,
		"--", src.URL,
	)
	var (
		title      string
		stderr     lineWriter
		progressMu sync.Mutex
	)
	// stdout and stderr are read on different goroutines.
	handle := func(line string, keepTitle bool) {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), progressPrefix); ok {
			if percent, ok := parsePercent(rest); ok && onProgress != nil {
				progressMu.Lock()
				onProgress(percent)
				progressMu.Unlock()
			}
			return
		}
		if keepTitle && title == "" {
			title = strings.TrimSpace(line)
		}
	}
	stderr.onLine = func(line string) { handle(line, false) }
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("yt-dlp download: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("yt-dlp download: %w", err)
	}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		handle(scanner.Text(), true)
	}
	err = cmd.Wait()
	stderr.flush()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("yt-dlp download: %w: %s", err, stderr.last)
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("yt-dlp download: output missing: %w", err)
	}
	return title, nil
}

func parsePercent(text string) (float64, bool) {
	text = strings.TrimSuffix(strings.TrimSpace(text), "%")
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// lineWriter splits yt-dlp stderr into lines and remembers the last
// non-progress one for error messages.
type lineWriter struct {
	mu      sync.Mutex
	partial []byte
	last    string
	onLine  func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.partial = append(w.partial, p...)
	for {
		idx := bytes.IndexByte(w.partial, '\n')
		if idx < 0 {
			break
		}
		w.line(string(w.partial[:idx]))
		w.partial = w.partial[idx+1:]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.partial) > 0 {
		w.line(string(w.partial))
		w.partial = nil
	}
}

func (w *lineWriter) line(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if !strings.HasPrefix(text, progressPrefix) {
		w.last = text
	}
	if w.onLine != nil {
		w.onLine(text)
	}
}
