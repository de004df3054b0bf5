package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"highlighter/internal/api"
	"highlighter/internal/config"
	"highlighter/internal/deps"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/preflight"
	"highlighter/internal/queue"
	"highlighter/internal/workflow"
)

// Daemon coordinates background processing and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	lib      *library.Library
	workflow *workflow.Manager
	queue    *api.QueueService
	videos   *api.VideoService

	lockPath string
	lock     *flock.Flock

	api   *apiServer
	sweep *sweeper

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc

	depsOnce sync.Once
	deps     []deps.Status
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, lib *library.Library, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || lib == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, library, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		lib:      lib,
		workflow: wf,
		queue:    api.NewQueueService(store, wf.Notify),
		videos:   api.NewVideoService(cfg, lib, store, logger, wf.Notify),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	d.sweep = newSweeper(cfg, d.videos, logger)
	return d, nil
}

// Start acquires the daemon lock, runs preflight checks, and launches the
// workflow manager, the retention sweep, and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another highlighter daemon instance is already running")
	}

	if err := d.preflight(ctx); err != nil {
		d.unlock()
		return err
	}

	if reset, err := d.store.ResetStuckProcessing(ctx); err != nil {
		d.logger.Warn("failed to reset stuck jobs", logging.Error(err))
	} else if reset > 0 {
		d.logger.Info("reset interrupted jobs", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		d.unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.sweep.start(runCtx); err != nil {
		cancel()
		d.workflow.Stop()
		d.unlock()
		return err
	}
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.sweep.stop()
		d.workflow.Stop()
		d.unlock()
		return err
	}

	d.cancel = cancel
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("highlighter daemon started",
		logging.String("lock", d.lockPath),
		logging.String("videos_dir", d.cfg.Paths.VideosDir),
		logging.String("api_bind", d.api.address()),
		logging.String(logging.FieldEventType, "daemon_start"),
	)
	return nil
}

func (d *Daemon) preflight(ctx context.Context) error {
	results := preflight.RunAll(ctx, d.cfg)
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.Bool("advisory", r.Advisory),
			logging.String(logging.FieldErrorHint, "fix the directory permissions or free up disk space"),
		)
	}
	if blocking := preflight.Blocking(results); len(blocking) > 0 {
		names := make([]string, 0, len(blocking))
		for _, r := range blocking {
			names = append(names, r.Name+": "+r.Detail)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(names, "; "))
	}
	for _, status := range deps.Missing(d.Dependencies(ctx)) {
		logging.WarnWithContext(d.logger, "dependency unavailable", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("command", status.Command),
			logging.String("detail", status.Detail),
			logging.Bool("optional", status.Optional),
		)
	}
	return nil
}

// Stop stops background processing and releases the daemon lock. Jobs a
// stage was working on are marked failed so they can be retried.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.api.stop()
	d.sweep.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()

	if count, err := d.store.FailInFlight(context.Background(), queue.DaemonStopReason); err != nil {
		d.logger.Warn("failed to mark interrupted jobs", logging.Error(err))
	} else if count > 0 {
		d.logger.Info("marked interrupted jobs failed", logging.Int64("count", count))
	}

	d.unlock()
	d.running.Store(false)
	d.logger.Info("highlighter daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

func (d *Daemon) unlock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

// Close stops the daemon and closes the queue store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Dependencies returns the external program checks, evaluated once.
func (d *Daemon) Dependencies(ctx context.Context) []deps.Status {
	d.depsOnce.Do(func() {
		d.deps = preflight.CheckSystemDeps(ctx, d.cfg)
	})
	return append([]deps.Status(nil), d.deps...)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	startedAt := d.startedAt
	d.mu.Unlock()
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    startedAt,
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		Dependencies: d.Dependencies(ctx),
	}
}

// APIAddress returns the address the API server listens on, or "" when it
// is disabled or not running.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}
