package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"highlighter/internal/classification"
	"highlighter/internal/config"
	"highlighter/internal/daemon"
	"highlighter/internal/extraction"
	"highlighter/internal/highlighting"
	"highlighter/internal/ingestion"
	"highlighter/internal/library"
	"highlighter/internal/logging"
	"highlighter/internal/probing"
	"highlighter/internal/queue"
	"highlighter/internal/workflow"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the processing pipeline and HTTP API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	lib := library.New(cfg.Paths.VideosDir, logger)
	mgr := workflow.NewManager(cfg, store, logger,
		workflow.WithPollInterval(time.Duration(cfg.Workflow.QueuePollInterval)*time.Second),
		workflow.WithHeartbeat(
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	)
	registerStages(mgr, cfg, store, lib, logger)

	d, err := daemon.New(cfg, store, lib, logger, mgr)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if addr := d.APIAddress(); addr != "" {
		logger.Info("api listening", logging.String("address", addr))
	}

	<-signalCtx.Done()
	logger.Info("highlighter daemon shutting down")
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, lib *library.Library, logger *slog.Logger) {
	if mgr == nil || cfg == nil {
		return
	}
	mgr.ConfigureStages(workflow.StageSet{
		Ingest:    ingestion.NewIngester(cfg, lib, logger).WithProgressStore(store),
		Probe:     probing.NewProber(cfg, lib, logger),
		Extract:   extraction.NewExtractor(cfg, lib, logger),
		Classify:  classification.NewClassifier(cfg, lib, logger),
		Highlight: highlighting.NewHighlighter(cfg, lib, logger),
	})
}
