package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"highlighter/internal/config"
	"highlighter/internal/logging"
	"highlighter/internal/notifications"
	"highlighter/internal/queue"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	logger        *slog.Logger
	pollInterval  time.Duration
	retryInterval time.Duration
	heartbeat     *HeartbeatMonitor
	notifier      notifications.Service
	wake          chan struct{}

	mu          sync.RWMutex
	stages      []pipelineStage
	byStart     map[queue.Status]pipelineStage
	statusOrder []queue.Status
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastErr     error
	lastJob     *queue.Job
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithPollInterval overrides the idle queue poll interval.
func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.pollInterval = d
	}
}

// WithHeartbeat overrides the heartbeat interval and stale timeout.
func WithHeartbeat(interval, timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.heartbeat = NewHeartbeatMonitor(m.store, m.logger, interval, timeout)
	}
}

// WithNotifier replaces the notifier built from the config.
func WithNotifier(n notifications.Service) ManagerOption {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	m := &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logger,
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		notifier: notifications.NewService(cfg),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Notify wakes an idle run loop so a freshly queued job starts without
// waiting for the next poll.
func (m *Manager) Notify() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
