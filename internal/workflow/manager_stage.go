package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"highlighter/internal/logging"
	"highlighter/internal/notifications"
	"highlighter/internal/queue"
	"highlighter/internal/services"
	"highlighter/internal/stage"
)

func (m *Manager) processJob(ctx context.Context, job *queue.Job) error {
	stg, ok := m.stageForStatus(job.Status)
	if !ok {
		m.logger.Warn("no stage configured for status", logging.String("status", string(job.Status)))
		m.waitForJobOrShutdown(ctx)
		return nil
	}

	stageCtx := withStageContext(ctx, stg.name, job, uuid.NewString())
	logger := logging.WithContext(stageCtx, m.logger)

	if err := stg.handler.Prepare(stageCtx, job); err != nil {
		m.handleStageFailure(stageCtx, stg.name, job, err)
		return err
	}
	if err := m.transitionToProcessing(stageCtx, stg, job); err != nil {
		logger.Error("failed to transition job to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	started := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("source", job.Source),
	)

	if err := m.executeWithHeartbeat(stageCtx, stg.handler, job); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			logger.Debug("stage interrupted by shutdown")
			return err
		}
		m.handleStageFailure(stageCtx, stg.name, job, err)
		return err
	}

	if job.Status == stg.processingStatus || job.Status == "" {
		job.Status = stg.doneStatus
	}
	job.LastHeartbeat = nil
	job.ErrorMessage = ""
	if job.Status == queue.StatusCompleted {
		stage.SetProgress(job, "Completed", 100, job.ProgressMessage)
	}
	if err := m.store.Update(stageCtx, job); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		logger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(job.Status)),
		logging.Duration("stage_duration", time.Since(started)),
	)
	m.setLastJob(job)
	if job.Status == queue.StatusCompleted {
		m.publish(stageCtx, notifications.EventHighlightsReady, notifications.Payload{
			"title":   job.DisplayTitle(),
			"videoId": job.VideoID,
			"summary": job.ProgressMessage,
		})
	}
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, job *queue.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	err := handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return err
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, job *queue.Job) error {
	now := time.Now().UTC()
	job.Status = stg.processingStatus
	job.LastHeartbeat = &now
	job.ErrorMessage = ""
	if job.ProgressStage == "" || job.ProgressPercent >= 100 {
		stage.SetProgress(job, stageLabel(stg.name), 0, job.ProgressMessage)
	}
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastJob(job)
	return nil
}

func withStageContext(ctx context.Context, stageName string, job *queue.Job, requestID string) context.Context {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithVideoID(ctx, job.VideoID)
	ctx = services.WithStage(ctx, stageName)
	return services.WithRequestID(ctx, requestID)
}
