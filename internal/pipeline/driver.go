package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"podforge/internal/config"
	"podforge/internal/logging"
	"podforge/internal/media/ffmpeg"
	"podforge/internal/queue"
	"podforge/internal/services/scriptapi"
	"podforge/internal/srt"
)

// Runner executes one task end to end: fetch, audio acquisition, cover art,
// subtitle timeline, batched segment rendering, and export.
type Runner struct {
	cfg      *config.Config
	store    queue.TaskStore
	scripts  ScriptService
	images   ImageService
	media    MediaEngine
	logger   *slog.Logger
	observer Observer
}

// NewRunner wires a Runner. images may be nil when cover generation is not
// configured; every run then uses the placeholder cover.
func NewRunner(cfg *config.Config, store queue.TaskStore, scripts ScriptService, images ImageService, media MediaEngine, logger *slog.Logger, observer Observer) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Runner{
		cfg:      cfg,
		store:    store,
		scripts:  scripts,
		images:   images,
		media:    media,
		logger:   logger,
		observer: observer,
	}
}

// Run assembles the task's video. On success the task is marked completed
// with its artifact paths; on error the caller owns the failure transition.
func (r *Runner) Run(ctx context.Context, task *queue.Task) error {
	ctx = logging.WithTask(ctx, task.ID, task.ScriptID)
	logger := r.logger.With(
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldScriptID, task.ScriptID))

	scratch, err := NewScratch(r.cfg.Paths.StagingDir, task.ID)
	if err != nil {
		return err
	}
	defer func() {
		if r.cfg.Pipeline.KeepScratch {
			logger.Info("keeping scratch directory", logging.String("path", scratch.Root))
			return
		}
		if cleanupErr := scratch.Cleanup(); cleanupErr != nil {
			logger.Warn("scratch cleanup failed", logging.Error(cleanupErr))
		}
	}()

	// Fetch.
	r.observer.StageStarted(task.ID, "fetch")
	lines, err := r.scripts.FetchLines(ctx, task.ScriptID)
	if err != nil {
		return err
	}
	meta, err := r.scripts.FetchScriptMeta(ctx, task.ScriptID)
	if err != nil {
		logger.Warn("script metadata unavailable", logging.Error(err))
		meta = scriptapi.ScriptMeta{TopicType: "LONG"}
	}
	lines, skipped, err := Normalize(lines, task.MaxLines)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("Fetched %d lines", len(lines))
	if skipped > 0 {
		message = fmt.Sprintf("Fetched %d lines (%d skipped without audio)", len(lines), skipped)
	}
	r.updateProgress(ctx, task, ProgressFetch, message)

	// Audio.
	r.observer.StageStarted(task.ID, "audio")
	audio, err := AcquireAudio(ctx, r.scripts, r.media, logger, lines, scratch.Audio, r.cfg.Pipeline.DownloadWorkers)
	if err != nil {
		return err
	}
	r.updateProgress(ctx, task, ProgressAudio, fmt.Sprintf("Downloaded %d audio files", len(audio)))

	// Cover art.
	r.observer.StageStarted(task.ID, "image")
	speakers := CollectSpeakers(lines)
	coverPath, err := PrepareCover(ctx, r.images, logger, meta, speakers, task.Format, task.SkipImageGeneration, scratch.Images)
	if err != nil {
		return err
	}
	r.updateProgress(ctx, task, ProgressImage, "Cover image ready")

	// Subtitles.
	r.observer.StageStarted(task.ID, "subtitles")
	cues := BuildTimeline(audio)
	fullSubtitlePath := filepath.Join(scratch.Subs, "full.srt")
	if err := srt.WriteFile(fullSubtitlePath, cues); err != nil {
		return err
	}
	r.updateProgress(ctx, task, ProgressSubtitles, fmt.Sprintf("Built %d subtitle cues", len(cues)))

	// Segments.
	r.observer.StageStarted(task.ID, "segments")
	batches := Partition(len(audio), r.cfg.Pipeline.BatchSize)
	renderer := NewRenderer(r.media, logger)
	burnPerSegment := task.BurnSubtitles && r.cfg.Pipeline.SubtitleBurn != config.SubtitleBurnFinal
	opts := RenderOptions{
		Format:        task.Format,
		FPS:           r.cfg.Video.FPS,
		VideoCodec:    r.cfg.Video.Codec,
		AudioCodec:    r.cfg.Video.AudioCodec,
		AudioBitrate:  r.cfg.Video.AudioBitrate,
		Style:         r.subtitleStyle(task.Format),
		BurnSubtitles: burnPerSegment,
		UseGPU:        r.cfg.Video.HardwareAccelerationOK,
		Workers:       r.cfg.Pipeline.RenderWorkers,
		CoverPath:     coverPath,
		SegmentsDir:   scratch.Segments,
		SubsDir:       scratch.Subs,
	}
	segments, err := renderer.RenderBatches(ctx, audio, batches, opts, func(completed int) {
		percent := ProgressSubtitles + (ProgressSegments-ProgressSubtitles)*float64(completed)/float64(len(batches))
		r.updateProgress(ctx, task, percent,
			fmt.Sprintf("Rendered %d/%d segments", completed, len(batches)))
	})
	if err != nil {
		return err
	}
	r.updateProgress(ctx, task, ProgressSegments, fmt.Sprintf("Rendered %d segments", len(segments)))

	// Export.
	r.observer.StageStarted(task.ID, "export")
	burnAtExport := ""
	if task.BurnSubtitles && !burnPerSegment {
		burnAtExport = fullSubtitlePath
	}
	videoPath, subtitlePath, err := r.export(ctx, task, scratch, segments, cues, burnAtExport, opts.Style)
	if err != nil {
		return err
	}

	completionMessage := "Video assembly complete"
	if statusErr := r.reportCompletion(ctx, task); statusErr != nil {
		logger.Warn("script status update failed", logging.Error(statusErr))
		completionMessage = "Video assembly complete (status update failed)"
	}
	task.SetCompleted(videoPath, subtitlePath, completionMessage)
	if err := r.store.Update(ctx, task); err != nil {
		return err
	}
	r.observer.ProgressChanged(task.ID, task.Progress, task.Message)
	logger.Info("task completed",
		logging.String("video", videoPath),
		logging.String("subtitles", subtitlePath))
	return nil
}

func (r *Runner) subtitleStyle(format queue.Format) ffmpeg.SubtitleStyle {
	size := r.cfg.Video.FontSizeHorizontal
	if format == queue.FormatVertical {
		size = r.cfg.Video.FontSizeVertical
	}
	return ffmpeg.SubtitleStyle{
		FontName: r.cfg.Video.SubtitleFont,
		FontSize: size,
		Outline:  r.cfg.Video.SubtitleOutline,
	}
}

func (r *Runner) updateProgress(ctx context.Context, task *queue.Task, percent float64, message string) {
	task.SetProgress(percent, message)
	if err := r.store.Update(ctx, task); err != nil {
		r.logger.Warn("progress update failed",
			logging.String(logging.FieldTaskID, task.ID),
			logging.Error(err))
	}
	r.observer.ProgressChanged(task.ID, percent, message)
}

// reportCompletion tells the script backend where to fetch the finished
// video. Skipped when no public base URL is configured.
func (r *Runner) reportCompletion(ctx context.Context, task *queue.Task) error {
	base := strings.TrimRight(strings.TrimSpace(r.cfg.Paths.AppBaseURL), "/")
	if base == "" {
		return nil
	}
	downloadURL := fmt.Sprintf("%s/api/v1/download?file=%s", base, url.QueryEscape(task.ID+".mp4"))
	return r.scripts.UpdateScriptStatus(ctx, task.ScriptID, downloadURL)
}
