package workflow

import (
	"context"

	"highlighter/internal/logging"
	"highlighter/internal/queue"
	"highlighter/internal/stage"
)

// StatusSummary is a snapshot of workflow state.
type StatusSummary struct {
	Running     bool                    `json:"running"`
	LastError   string                  `json:"lastError,omitempty"`
	LastJob     *queue.Job              `json:"lastJob,omitempty"`
	QueueStats  map[queue.Status]int    `json:"queueStats"`
	StageHealth map[string]stage.Health `json:"stageHealth"`
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	stages := append([]pipelineStage(nil), m.stages...)
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		health[stg.name] = stg.handler.HealthCheck(ctx)
	}

	summary := StatusSummary{Running: running, QueueStats: stats, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		snapshot := *lastJob
		summary.LastJob = &snapshot
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job == nil {
		m.lastJob = nil
		return
	}
	snapshot := *job
	m.lastJob = &snapshot
}
