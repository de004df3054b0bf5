package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NewJob enqueues a video in StatusPending.
func (s *Store) NewJob(ctx context.Context, videoID string, kind SourceKind, source, title string) (*Job, error) {
	videoID = strings.TrimSpace(videoID)
	source = strings.TrimSpace(source)
	if videoID == "" {
		return nil, errors.New("new job: video id is required")
	}
	if source == "" {
		return nil, errors.New("new job: source is required")
	}
	if kind != SourceFile && kind != SourceLink {
		return nil, fmt.Errorf("new job: unknown source kind %q", kind)
	}

	now := formatTime(time.Now())
	res, err := s.exec(ctx,
		`INSERT INTO jobs (video_id, source_kind, source, title, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		videoID, kind, source, nullableString(strings.TrimSpace(title)), StatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. A missing job yields nil without error.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	return s.queryOne(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
}

// FindByVideoID returns the job that produced a library video.
func (s *Store) FindByVideoID(ctx context.Context, videoID string) (*Job, error) {
	return s.queryOne(ctx, `SELECT `+jobColumns+` FROM jobs WHERE video_id = ?`, videoID)
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (*Job, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	return job, nil
}

// Update persists every mutable field of job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("update job: job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	affected, err := s.execCount(ctx,
		`UPDATE jobs
         SET title = ?, status = ?, error_message = ?, updated_at = ?,
             progress_stage = ?, progress_percent = ?, progress_message = ?,
             last_heartbeat = ?, needs_review = ?, review_reason = ?
         WHERE id = ?`,
		nullableString(job.Title),
		job.Status,
		nullableString(job.ErrorMessage),
		formatTime(job.UpdatedAt),
		nullableString(job.ProgressStage),
		job.ProgressPercent,
		nullableString(job.ProgressMessage),
		nullableTime(job.LastHeartbeat),
		boolToInt(job.NeedsReview),
		nullableString(job.ReviewReason),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update job %d: %w", job.ID, ErrJobNotFound)
	}
	return nil
}

// UpdateProgress persists only the progress columns so frequent progress
// writes do not race with status changes made elsewhere.
func (s *Store) UpdateProgress(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("update progress: job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	if _, err := s.exec(ctx,
		`UPDATE jobs SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(job.ProgressStage),
		job.ProgressPercent,
		nullableString(job.ProgressMessage),
		formatTime(job.UpdatedAt),
		job.ID,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// List returns jobs in creation order, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id`, statusArgs(statuses)...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return scanJobs(rows)
}

// NextForStatuses returns the oldest job in any of the statuses, or nil.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Job, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	return s.queryOne(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status IN (`+placeholders(len(statuses))+`) ORDER BY id LIMIT 1`,
		statusArgs(statuses)...,
	)
}

// Remove deletes a job and reports whether it existed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	affected, err := s.execCount(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	return affected > 0, nil
}

// RemoveByVideoID deletes the job for a library video.
func (s *Store) RemoveByVideoID(ctx context.Context, videoID string) (bool, error) {
	affected, err := s.execCount(ctx, `DELETE FROM jobs WHERE video_id = ?`, videoID)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	return affected > 0, nil
}

// Clear removes jobs in the given statuses, or every job when none are given.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	query := `DELETE FROM jobs`
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
	}
	affected, err := s.execCount(ctx, query, statusArgs(statuses)...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return affected, nil
}
