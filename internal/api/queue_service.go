package api

import (
	"context"
	"fmt"

	"highlighter/internal/queue"
)

// QueueStore abstracts the queue persistence used by the API.
type QueueStore interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id int64) (*queue.Job, error)
	FindByVideoID(ctx context.Context, videoID string) (*queue.Job, error)
	NewJob(ctx context.Context, videoID string, kind queue.SourceKind, source, title string) (*queue.Job, error)
	Remove(ctx context.Context, id int64) (bool, error)
	RemoveByVideoID(ctx context.Context, videoID string) (bool, error)
	RetryFailed(ctx context.Context, ids ...int64) (int64, error)
	Clear(ctx context.Context, statuses ...queue.Status) (int64, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
	CheckHealth(ctx context.Context) (queue.DatabaseHealth, error)
}

// QueueService exposes queue operations returning API DTOs.
type QueueService struct {
	store  QueueStore
	notify func()
}

// NewQueueService constructs a QueueService. notify, when set, is called
// after jobs are put back in line.
func NewQueueService(store QueueStore, notify func()) *QueueService {
	return &QueueService{store: store, notify: notify}
}

// List returns jobs filtered by status.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]Job, error) {
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Stats returns counts for every status.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single job, or nil when it does not exist.
func (s *QueueService) Describe(ctx context.Context, id int64) (*Job, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// Health returns lifecycle counts and database diagnostics.
func (s *QueueService) Health(ctx context.Context) (queue.HealthSummary, queue.DatabaseHealth, error) {
	summary, err := s.store.Health(ctx)
	if err != nil {
		return queue.HealthSummary{}, queue.DatabaseHealth{}, err
	}
	db, err := s.store.CheckHealth(ctx)
	if err != nil {
		return summary, db, err
	}
	return summary, db, nil
}

type RetryOutcome string

const (
	RetryUpdated   RetryOutcome = "retried"
	RetryNotFound  RetryOutcome = "not_found"
	RetryNotFailed RetryOutcome = "not_failed"
)

type RetryResult struct {
	ID          int64        `json:"id"`
	Outcome     RetryOutcome `json:"outcome"`
	PriorStatus string       `json:"priorStatus,omitempty"`
}

type RetryResults struct {
	UpdatedCount int64         `json:"updatedCount"`
	Items        []RetryResult `json:"items"`
}

// Retry moves failed or review jobs back to pending. With no ids every failed
// job is retried and Items is empty.
func (s *QueueService) Retry(ctx context.Context, ids ...int64) (RetryResults, error) {
	result := RetryResults{Items: make([]RetryResult, 0, len(ids))}
	if len(ids) == 0 {
		updated, err := s.store.RetryFailed(ctx)
		if err != nil {
			return RetryResults{}, err
		}
		result.UpdatedCount = updated
		s.wake(updated)
		return result, nil
	}

	for _, id := range ids {
		job, err := s.store.GetByID(ctx, id)
		if err != nil {
			return RetryResults{}, err
		}
		if job == nil {
			result.Items = append(result.Items, RetryResult{ID: id, Outcome: RetryNotFound})
			continue
		}
		if job.Status != queue.StatusFailed && job.Status != queue.StatusReview {
			result.Items = append(result.Items, RetryResult{ID: id, Outcome: RetryNotFailed, PriorStatus: string(job.Status)})
			continue
		}
		updated, err := s.store.RetryFailed(ctx, id)
		if err != nil {
			return RetryResults{}, err
		}
		if updated == 0 {
			result.Items = append(result.Items, RetryResult{ID: id, Outcome: RetryNotFailed, PriorStatus: string(job.Status)})
			continue
		}
		result.UpdatedCount += updated
		result.Items = append(result.Items, RetryResult{ID: id, Outcome: RetryUpdated, PriorStatus: string(job.Status)})
	}
	s.wake(result.UpdatedCount)
	return result, nil
}

type RemoveOutcome string

const (
	RemoveDeleted    RemoveOutcome = "removed"
	RemoveNotFound   RemoveOutcome = "not_found"
	RemoveProcessing RemoveOutcome = "processing"
)

type RemoveResult struct {
	ID      int64         `json:"id"`
	Outcome RemoveOutcome `json:"outcome"`
}

type RemoveResults struct {
	RemovedCount int64          `json:"removedCount"`
	Items        []RemoveResult `json:"items"`
}

// Remove deletes queue entries. Jobs a stage is working on are left alone.
// The library directories of removed jobs are kept.
func (s *QueueService) Remove(ctx context.Context, ids ...int64) (RemoveResults, error) {
	result := RemoveResults{Items: make([]RemoveResult, 0, len(ids))}
	for _, id := range ids {
		job, err := s.store.GetByID(ctx, id)
		if err != nil {
			return RemoveResults{}, err
		}
		if job == nil {
			result.Items = append(result.Items, RemoveResult{ID: id, Outcome: RemoveNotFound})
			continue
		}
		if job.Status.IsProcessing() {
			result.Items = append(result.Items, RemoveResult{ID: id, Outcome: RemoveProcessing})
			continue
		}
		removed, err := s.store.Remove(ctx, id)
		if err != nil {
			return RemoveResults{}, err
		}
		if !removed {
			result.Items = append(result.Items, RemoveResult{ID: id, Outcome: RemoveNotFound})
			continue
		}
		result.RemovedCount++
		result.Items = append(result.Items, RemoveResult{ID: id, Outcome: RemoveDeleted})
	}
	return result, nil
}

// ClearScope selects which jobs Clear removes.
type ClearScope string

const (
	ClearAll       ClearScope = "all"
	ClearCompleted ClearScope = "completed"
	ClearFailed    ClearScope = "failed"
)

// Clear removes jobs in scope and returns how many were deleted.
func (s *QueueService) Clear(ctx context.Context, scope ClearScope) (int64, error) {
	switch scope {
	case ClearAll:
		return s.store.Clear(ctx)
	case ClearCompleted:
		return s.store.Clear(ctx, queue.StatusCompleted)
	case ClearFailed:
		return s.store.Clear(ctx, queue.StatusFailed, queue.StatusReview)
	default:
		return 0, fmt.Errorf("%w: unknown clear scope %q", ErrInvalidInput, scope)
	}
}

func (s *QueueService) wake(updated int64) {
	if updated > 0 && s.notify != nil {
		s.notify()
	}
}
