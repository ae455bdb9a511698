package main

import (
	"context"
	"fmt"
	"log/slog"

	"podforge/internal/config"
	"podforge/internal/logging"
	"podforge/internal/media/ffmpeg"
	"podforge/internal/pipeline"
	"podforge/internal/queue"
	"podforge/internal/services/imagegen"
	"podforge/internal/services/scriptapi"
)

// buildRunner assembles the pipeline runner and its service clients. The
// hardware capability probe runs here, once, and its outcome is carried in
// the config handed to the renderer.
func buildRunner(ctx context.Context, cfg *config.Config, store queue.TaskStore, logger *slog.Logger, observer pipeline.Observer) (*pipeline.Runner, error) {
	media, err := ffmpeg.New(cfg.FFmpegBinary(), cfg.FFprobeBinary(), ffmpeg.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	caps := media.DetectCapabilities(ctx)
	cfg.Video.HardwareAccelerationOK = caps.NVENC

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

	return pipeline.NewRunner(cfg, store, scripts, images, media, logger, observer), nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg)
}
