package workflow

import (
	"context"
	"errors"
	"time"

	"highlighter/internal/logging"
	"highlighter/internal/queue"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	order := append([]queue.Status(nil), m.statusOrder...)
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx, order)
	return nil
}

// Stop terminates background processing and waits for the current stage to
// return.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, order []queue.Status) {
	defer m.wg.Done()
	m.logger.Info("workflow started",
		logging.Int("stages", len(order)),
		logging.String(logging.FieldEventType, "workflow_start"),
	)
	defer m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stop"))

	for {
		if ctx.Err() != nil {
			return
		}

		if err := m.heartbeat.ReclaimStaleJobs(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(m.logger, "reclaim stale jobs failed; stuck jobs may remain", "heartbeat_reclaim_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}

		job, err := m.store.NextForStatuses(ctx, order...)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.handleNextJobError(ctx, err)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if err := m.processJob(ctx, job); errors.Is(err, context.Canceled) {
			return
		}
	}
}

func (m *Manager) handleNextJobError(ctx context.Context, err error) {
	m.setLastError(err)
	logging.ErrorWithContext(m.logger, "failed to fetch next queue job", "queue_fetch_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(m.retryInterval):
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-time.After(m.pollInterval):
	}
}
