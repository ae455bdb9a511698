// Command podforged runs the render daemon: queue polling, the assembly
// pipeline, and the HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"podforge/internal/config"
	"podforge/internal/daemon"
	"podforge/internal/logging"
	"podforge/internal/media/ffmpeg"
	"podforge/internal/notifications"
	"podforge/internal/pipeline"
	"podforge/internal/queue"
	"podforge/internal/services/imagegen"
	"podforge/internal/services/scriptapi"
	"podforge/internal/workflow"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if err := daemon.CheckDependencies(cfg); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	runner, err := buildRunner(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	notifier := notifications.New(cfg.Notifications, logger)
	manager := workflow.NewManager(cfg, store, runner, notifier, logger)

	logger.Info("podforged starting", logging.String("bind", cfg.Paths.APIBind))
	err = daemon.New(cfg, store, manager, logger).Run(ctx)
	logger.Info("podforged stopped")
	return err
}

func buildRunner(ctx context.Context, cfg *config.Config, store queue.TaskStore, logger *slog.Logger) (*pipeline.Runner, error) {
	media, err := ffmpeg.New(cfg.FFmpegBinary(), cfg.FFprobeBinary(), ffmpeg.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	caps := media.DetectCapabilities(ctx)
	cfg.Video.HardwareAccelerationOK = caps.NVENC
	if !caps.NVENC {
		logger.Info("hardware encoding unavailable, using software")
	}

	scripts, err := scriptapi.New(cfg.ScriptAPI, scriptapi.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	var images pipeline.ImageService
	if cfg.ImageGen.BaseURL != "" {
		client, err := imagegen.New(cfg.ImageGen, imagegen.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("image generation client: %w", err)
		}
		images = client
	}

	return pipeline.NewRunner(cfg, store, scripts, images, media, logger, pipeline.NopObserver{}), nil
}
