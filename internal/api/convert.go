package api

import (
	"slices"
	"strings"

	"highlighter/internal/classifier"
	"highlighter/internal/highlights"
	"highlighter/internal/library"
	"highlighter/internal/queue"
	"highlighter/internal/workflow"
)

// uploadsPrefix is where the HTTP server mounts the videos directory.
const uploadsPrefix = "/uploads/"

// FromJob converts a queue job to its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:         job.ID,
		VideoID:    job.VideoID,
		SourceKind: string(job.SourceKind),
		Source:     job.Source,
		Title:      job.DisplayTitle(),
		Status:     string(job.Status),
		Progress: Progress{
			Stage:   job.ProgressStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
		ErrorMessage: job.ErrorMessage,
		NeedsReview:  job.NeedsReview,
		ReviewReason: job.ReviewReason,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of jobs.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job != nil {
			out = append(out, FromJob(job))
		}
	}
	return out
}

// FromInfo converts a library entry. job may be nil for videos whose queue
// entry was cleared.
func FromInfo(info library.Info, job *queue.Job) Video {
	dto := Video{
		ID:              info.ID,
		Name:            info.Name,
		Title:           info.Title,
		Source:          info.Source,
		DurationSeconds: info.DurationSeconds,
		Size:            info.Size,
		Files:           append([]string{}, info.Files...),
		HasHighlights:   info.HasFile(library.HighlightsFile),
		Metadata:        info.Metadata,
	}
	if !info.CreatedAt.IsZero() {
		dto.CreatedAt = info.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if info.HasFile(library.VideoFile) {
		dto.VideoURL = uploadsPrefix + info.ID + "/" + library.VideoFile
	}
	if info.HasFile(library.ThumbnailFile) {
		dto.ThumbnailURL = uploadsPrefix + info.ID + "/" + library.ThumbnailFile
	}
	for _, name := range info.Files {
		if classifier.IsScoresFile(name) {
			dto.HasScores = true
			break
		}
	}
	if job != nil {
		j := FromJob(job)
		dto.Job = &j
	}
	return dto
}

// FromMatrix converts a classifier matrix.
func FromMatrix(m *highlights.Matrix) Scores {
	if m == nil {
		return Scores{ClassNames: []string{}, Scores: [][]float64{}}
	}
	out := Scores{
		ClassNames: m.ClassNames(),
		FrameCount: m.FrameCount(),
		Scores:     make([][]float64, 0, m.ClassCount()),
	}
	for i := range m.ClassCount() {
		row, err := m.Row(i)
		if err != nil {
			break
		}
		out.Scores = append(out.Scores, row)
	}
	return out
}

// MergeQueueStats returns counts for every status, including zeroes.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

// FromStatusSummary converts workflow status. Stage health is sorted by name.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  MergeQueueStats(summary.QueueStats),
		LastError:   summary.LastError,
		StageHealth: make([]StageHealth, 0, len(summary.StageHealth)),
	}
	if summary.LastJob != nil {
		job := FromJob(summary.LastJob)
		status.LastJob = &job
	}
	names := make([]string, 0, len(summary.StageHealth))
	for name := range summary.StageHealth {
		names = append(names, name)
	}
	slices.SortFunc(names, strings.Compare)
	for _, name := range names {
		h := summary.StageHealth[name]
		status.StageHealth = append(status.StageHealth, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return status
}
