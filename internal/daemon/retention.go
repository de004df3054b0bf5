package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"highlighter/internal/config"
	"highlighter/internal/logging"
)

// pruner removes expired videos and reports how many were deleted.
type pruner interface {
	PruneExpired(ctx context.Context) (int, error)
}

// sweeper runs the retention sweep on library.cleanup_schedule. It prunes
// expired videos when library.retention_days is set and old log files when
// logging.retention_days is set.
type sweeper struct {
	cfg    *config.Config
	videos pruner
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func newSweeper(cfg *config.Config, videos pruner, logger *slog.Logger) *sweeper {
	return &sweeper{
		cfg:    cfg,
		videos: videos,
		logger: logging.NewComponentLogger(logger, "retention"),
		now:    time.Now,
	}
}

func (s *sweeper) enabled() bool {
	return s.cfg.RetentionWindow() > 0 || s.cfg.Logging.RetentionDays > 0
}

func (s *sweeper) start(ctx context.Context) error {
	if !s.enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Library.CleanupSchedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule retention sweep: %w", err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("retention sweep scheduled",
		logging.String("schedule", s.cfg.Library.CleanupSchedule),
		logging.Int("video_retention_days", s.cfg.Library.RetentionDays),
		logging.Int("log_retention_days", s.cfg.Logging.RetentionDays),
	)
	return nil
}

func (s *sweeper) stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// run performs one sweep. Failures are logged and retried on the next tick.
func (s *sweeper) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	started := s.now()

	videos, err := s.videos.PruneExpired(ctx)
	if err != nil {
		logging.WarnWithContext(s.logger, "video retention sweep failed", "retention_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the videos directory is readable"),
		)
	}
	logs, err := logging.PruneLogs(s.logger, s.cfg.Paths.LogDir, s.cfg.Logging.RetentionDays, started,
		filepath.Join(s.cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		logging.WarnWithContext(s.logger, "log retention sweep failed", "retention_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the log directory is readable"),
		)
	}
	if videos > 0 || logs > 0 {
		s.logger.Info("retention sweep finished",
			logging.Int("videos_removed", videos),
			logging.Int("logs_removed", logs),
			logging.Duration("duration", s.now().Sub(started)),
			logging.String(logging.FieldEventType, "retention_sweep"),
		)
	}
}
