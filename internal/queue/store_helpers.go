package queue

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

var jobColumnList = []string{
	"id", "video_id", "source_kind", "source", "title", "status", "error_message",
	"created_at", "updated_at", "progress_stage", "progress_percent", "progress_message",
	"last_heartbeat", "needs_review", "review_reason",
}

var jobColumns = strings.Join(jobColumnList, ", ")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (*Job, error) {
	var (
		job          Job
		kind, status string
		title        sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
		stage        sql.NullString
		message      sql.NullString
		heartbeatRaw sql.NullString
		needsReview  int64
		reviewReason sql.NullString
	)
	if err := scanner.Scan(
		&job.ID, &job.VideoID, &kind, &job.Source, &title, &status, &errorMessage,
		&createdRaw, &updatedRaw, &stage, &job.ProgressPercent, &message,
		&heartbeatRaw, &needsReview, &reviewReason,
	); err != nil {
		return nil, err
	}

	job.SourceKind = SourceKind(kind)
	job.Status = Status(status)
	job.Title = title.String
	job.ErrorMessage = errorMessage.String
	job.ProgressStage = stage.String
	job.ProgressMessage = message.String
	job.NeedsReview = needsReview != 0
	job.ReviewReason = reviewReason.String
	job.CreatedAt, _ = parseTime(createdRaw)
	job.UpdatedAt, _ = parseTime(updatedRaw)
	if heartbeatRaw.Valid {
		if hb, err := parseTime(heartbeatRaw.String); err == nil {
			job.LastHeartbeat = &hb
		}
	}
	return &job, nil
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	defer rows.Close()
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
