package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"highlighter/internal/api"
	"highlighter/internal/config"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/queue"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// cliLogger reports warnings and errors from one-shot commands on stderr.
// Info chatter belongs to the daemon log.
func (c *commandContext) cliLogger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) withStore(fn func(*queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// serviceSet bundles the services one-shot commands use. Notifications are
// dropped: a running daemon sees new work on its next poll.
type serviceSet struct {
	cfg    *config.Config
	lib    *library.Library
	queue  *api.QueueService
	videos *api.VideoService
	logger *slog.Logger
}

func (c *commandContext) withServices(fn func(*serviceSet) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	return c.withStore(func(store *queue.Store) error {
		logger := c.cliLogger()
		lib := library.New(cfg.Paths.VideosDir, logger)
		return fn(&serviceSet{
			cfg:    cfg,
			lib:    lib,
			queue:  api.NewQueueService(store, nil),
			videos: api.NewVideoService(cfg, lib, store, logger, nil),
			logger: logger,
		})
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
