package api

import (
	"encoding/json"

	"highlighter/internal/deps"
	"highlighter/internal/library"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a queue entry in a transport-friendly format.
type Job struct {
	ID           int64    `json:"id"`
	VideoID      string   `json:"videoId"`
	SourceKind   string   `json:"sourceKind"`
	Source       string   `json:"source"`
	Title        string   `json:"title"`
	Status       string   `json:"status"`
	Progress     Progress `json:"progress"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
	NeedsReview  bool     `json:"needsReview"`
	ReviewReason string   `json:"reviewReason,omitempty"`
}

// Progress captures stage progress for a job.
type Progress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// Video is a library entry joined with its queue job.
type Video struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Title           string          `json:"title,omitempty"`
	Source          library.Source  `json:"source"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	DurationSeconds float64         `json:"duration"`
	Size            int64           `json:"size"`
	Files           []string        `json:"files"`
	VideoURL        string          `json:"videoUrl,omitempty"`
	ThumbnailURL    string          `json:"thumbnailUrl,omitempty"`
	HasScores       bool            `json:"hasScores"`
	HasHighlights   bool            `json:"hasHighlights"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	Job             *Job            `json:"job,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	StartedAt    string         `json:"startedAt,omitempty"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	VideosDir    string         `json:"videosDir"`
	Preset       string         `json:"preset"`
	Workflow     WorkflowStatus `json:"workflow"`
	Dependencies []deps.Status  `json:"dependencies"`
}

// Scores is the classifier matrix in class-major order.
type Scores struct {
	ClassNames []string    `json:"classNames"`
	FrameCount int         `json:"frameCount"`
	Scores     [][]float64 `json:"scores"`
}

// AddLinkRequest is the body of POST /api/videos/link.
type AddLinkRequest struct {
	Link string `json:"link"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
