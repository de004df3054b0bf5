package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"highlighter/internal/logging"
	"highlighter/internal/notifications"
	"highlighter/internal/queue"
	"highlighter/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, job *queue.Job, stageErr error) {
	logger := logging.WithContext(ctx, m.logger)

	message := failureMessage(stageName, stageErr)
	status := queue.FailureStatus(stageErr)
	job.Status = status
	job.ErrorMessage = message
	job.LastHeartbeat = nil
	job.ProgressMessage = message
	if status == queue.StatusReview {
		job.MarkReview(message)
	}

	attrs := []logging.Attr{
		logging.String("resolved_status", string(status)),
		logging.String("error_kind", services.KindOf(stageErr)),
		logging.String(logging.FieldImpact, impactFor(status)),
	}
	var stageError *services.StageError
	if errors.As(stageErr, &stageError) && stageError.Message != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, stageError.Message))
	}
	attrs = append(attrs, logging.Error(stageErr))
	logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)

	// A cancelled parent must not stop the failure from being recorded.
	persistCtx := context.WithoutCancel(ctx)
	if err := m.store.Update(persistCtx, job); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	m.setLastError(stageErr)
	m.setLastJob(job)

	event := notifications.EventJobFailed
	if status == queue.StatusReview {
		event = notifications.EventJobReview
	}
	m.publish(persistCtx, event, notifications.Payload{
		"title":   job.DisplayTitle(),
		"videoId": job.VideoID,
		"stage":   stageName,
		"error":   message,
	})
}

// publish sends a notification. Delivery failures are logged and never fail
// the job.
func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func failureMessage(stageName string, err error) string {
	if err == nil {
		return fmt.Sprintf("%s failed without error detail", stageName)
	}
	if message := strings.TrimSpace(err.Error()); message != "" {
		return message
	}
	return fmt.Sprintf("%s failed", stageName)
}

func impactFor(status queue.Status) string {
	if status == queue.StatusReview {
		return "job needs manual review before it can be retried"
	}
	return "job stopped; retry with `highlighter queue retry`"
}
