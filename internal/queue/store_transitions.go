package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// rollbackCase renders "CASE status WHEN ? THEN ? ... END" plus the
// in-flight status list for the WHERE clause.
func rollbackCase() (caseExpr string, caseArgs []any, inList string, inArgs []any) {
	var b strings.Builder
	b.WriteString("CASE status")
	for _, status := range allStatuses {
		to, ok := rollbacks[status]
		if !ok {
			continue
		}
		b.WriteString(" WHEN ? THEN ?")
		caseArgs = append(caseArgs, status, to)
		inArgs = append(inArgs, status)
	}
	b.WriteString(" ELSE status END")
	return b.String(), caseArgs, placeholders(len(inArgs)), inArgs
}

// ResetStuckProcessing returns every in-flight job to the status its stage
// started from. The daemon calls it at startup.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	caseExpr, caseArgs, inList, inArgs := rollbackCase()
	args := append(caseArgs, formatTime(time.Now()))
	args = append(args, inArgs...)
	affected, err := s.execCount(ctx,
		`UPDATE jobs SET status = `+caseExpr+`,
             progress_stage = 'Reset from stuck processing', progress_percent = 0,
             progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (`+inList+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return affected, nil
}

// ReclaimStaleProcessing rolls back in-flight jobs whose heartbeat is older than cutoff.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	caseExpr, caseArgs, inList, inArgs := rollbackCase()
	args := append(caseArgs, formatTime(time.Now()))
	args = append(args, inArgs...)
	args = append(args, formatTime(cutoff))
	affected, err := s.execCount(ctx,
		`UPDATE jobs SET status = `+caseExpr+`,
             progress_stage = 'Reclaimed from stale processing', progress_percent = 0,
             progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (`+inList+`) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return affected, nil
}

// UpdateHeartbeat stamps an in-flight job as alive.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := formatTime(time.Now())
	if _, err := s.exec(ctx, `UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ?`, now, now, id); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// RetryFailed moves failed or review jobs back to pending. With no ids every
// failed job is retried; review jobs are only retried when named explicitly.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	const set = `SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
             progress_message = NULL, error_message = NULL, needs_review = 0,
             review_reason = NULL, last_heartbeat = NULL, updated_at = ?`
	args := []any{StatusPending, formatTime(time.Now())}

	query := `UPDATE jobs ` + set + ` WHERE status = ?`
	args = append(args, StatusFailed)
	if len(ids) > 0 {
		query = `UPDATE jobs ` + set + ` WHERE status IN (?, ?) AND id IN (` + placeholders(len(ids)) + `)`
		args = append(args, StatusReview)
		for _, id := range ids {
			args = append(args, id)
		}
	}
	affected, err := s.execCount(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry jobs: %w", err)
	}
	return affected, nil
}

// FailInFlight marks every in-flight job failed with reason. The daemon calls
// it on shutdown so interrupted work is visible rather than silently resumed.
func (s *Store) FailInFlight(ctx context.Context, reason string) (int64, error) {
	_, _, inList, inArgs := rollbackCase()
	args := []any{StatusFailed, nullableString(reason), formatTime(time.Now())}
	args = append(args, inArgs...)
	affected, err := s.execCount(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (`+inList+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("fail in-flight jobs: %w", err)
	}
	return affected, nil
}
