package queue

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusIngesting    Status = "ingesting"
	StatusIngested     Status = "ingested"
	StatusProbing      Status = "probing"
	StatusProbed       Status = "probed"
	StatusExtracting   Status = "extracting"
	StatusExtracted    Status = "extracted"
	StatusClassifying  Status = "classifying"
	StatusClassified   Status = "classified"
	StatusHighlighting Status = "highlighting"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

// DaemonStopReason is recorded on jobs interrupted by daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusIngesting,
	StatusIngested,
	StatusProbing,
	StatusProbed,
	StatusExtracting,
	StatusExtracted,
	StatusClassifying,
	StatusClassified,
	StatusHighlighting,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

// rollbacks maps every in-flight status to the status its stage started from.
var rollbacks = map[Status]Status{
	StatusIngesting:    StatusPending,
	StatusProbing:      StatusIngested,
	StatusExtracting:   StatusProbed,
	StatusClassifying:  StatusExtracted,
	StatusHighlighting: StatusClassified,
}

// AllStatuses returns every status in pipeline order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus resolves a status name case-insensitively.
func ParseStatus(value string) (Status, error) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// IsProcessing reports whether a stage is actively working on the status.
func (s Status) IsProcessing() bool {
	_, ok := rollbacks[s]
	return ok
}

// IsTerminal reports whether no stage will pick the status up again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusReview
}

// SourceKind says where a job's video comes from.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceLink SourceKind = "link"
)

// Job is one video moving through the pipeline.
type Job struct {
	ID              int64
	VideoID         string
	SourceKind      SourceKind
	Source          string
	Title           string
	Status          Status
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
	NeedsReview     bool
	ReviewReason    string
}

// DisplayTitle falls back to the source when no title is known yet.
func (j *Job) DisplayTitle() string {
	if j == nil {
		return ""
	}
	if title := strings.TrimSpace(j.Title); title != "" {
		return title
	}
	return j.Source
}

// MarkReview flags the job for manual attention.
func (j *Job) MarkReview(reason string) {
	j.NeedsReview = true
	j.ReviewReason = strings.TrimSpace(reason)
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// HealthSummary groups job counts by lifecycle phase.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Waiting    int
	Failed     int
	Review     int
	Completed  int
}
