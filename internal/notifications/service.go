package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"highlighter/internal/config"
)

const userAgent = "highlighter/1.0"

// Event identifies a job milestone.
type Event string

const (
	EventHighlightsReady Event = "highlights_ready"
	EventJobFailed       Event = "job_failed"
	EventJobReview       Event = "job_review"
	EventTest            Event = "test"
)

// Payload carries the fields an event message is built from. Known keys are
// "title", "videoId", "summary", "stage", and "error".
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService returns an ntfy-backed service, or a no-op when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:       strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:         &http.Client{Timeout: timeout},
		notifyFailures: cfg.Notifications.NotifyFailures,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	notifyFailures bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	title := payload.text("title", "untitled video")
	switch event {
	case EventHighlightsReady:
		body := fmt.Sprintf("Highlights ready: %s", title)
		if summary := payload.text("summary", ""); summary != "" {
			body += "\n" + summary
		}
		if id := payload.text("videoId", ""); id != "" {
			body += "\nVideo: " + id
		}
		return message{
			title: "Highlighter - Ready",
			body:  body,
			tags:  []string{"highlighter", "highlights", "completed"},
		}, true
	case EventJobFailed, EventJobReview:
		if !n.notifyFailures {
			return message{}, false
		}
		heading, tag, priority := "Failed", "failed", "high"
		if event == EventJobReview {
			heading, tag, priority = "Needs Review", "review", ""
		}
		body := fmt.Sprintf("%s during %s: %s", title, payload.text("stage", "processing"), payload.text("error", "unknown error"))
		return message{
			title:    "Highlighter - " + heading,
			body:     body,
			tags:     []string{"highlighter", "job", tag},
			priority: priority,
		}, true
	case EventTest:
		return message{
			title:    "Highlighter - Test",
			body:     "Notification system test",
			tags:     []string{"highlighter", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", msg.title)
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) text(key, fallback string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return fallback
	}
	s := strings.TrimSpace(fmt.Sprint(value))
	if s == "" {
		return fallback
	}
	return s
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
