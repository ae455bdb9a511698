package pipeline

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"podforge/internal/logging"
	"podforge/internal/services/scriptapi"
	"podforge/internal/textutil"
)

// AcquireAudio downloads every line's audio into the run's audio directory,
// bounded by workers concurrent downloads. Files already present and
// probe-able are reused; an unreadable cached file is re-downloaded. Results
// keep the input line order regardless of download completion order.
func AcquireAudio(ctx context.Context, scripts ScriptService, media MediaEngine, logger *slog.Logger, lines []scriptapi.Line, audioDir string, workers int) ([]LineAudio, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]LineAudio, len(lines))

	// Lines can reference the same audio file; download each unique target
	// once so workers never race on a destination path.
	type target struct {
		audioRef string
		indexes  []int
	}
	order := make([]string, 0, len(lines))
	targets := make(map[string]*target, len(lines))
	for i, line := range lines {
		dest := filepath.Join(audioDir, textutil.SanitizeFileName(path.Base(line.AudioRef)))
		if existing, ok := targets[dest]; ok {
			existing.indexes = append(existing.indexes, i)
			continue
		}
		targets[dest] = &target{audioRef: line.AudioRef, indexes: []int{i}}
		order = append(order, dest)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, dest := range order {
		dest := dest
		tgt := targets[dest]
		group.Go(func() error {
			duration, err := fetchAudio(groupCtx, scripts, media, logger, tgt.audioRef, dest)
			if err != nil {
				return err
			}
			for _, i := range tgt.indexes {
				results[i] = LineAudio{Line: lines[i], Path: dest, Duration: duration}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func fetchAudio(ctx context.Context, scripts ScriptService, media MediaEngine, logger *slog.Logger, audioRef, dest string) (time.Duration, error) {
	if duration, probeErr := media.ProbeDuration(ctx, dest); probeErr == nil {
		logger.Debug("audio cache hit",
			logging.String("audio_ref", audioRef),
			logging.Duration("duration", duration))
		return duration, nil
	}
	if err := scripts.DownloadAudio(ctx, audioRef, dest); err != nil {
		return 0, err
	}
	return media.ProbeDuration(ctx, dest)
}
