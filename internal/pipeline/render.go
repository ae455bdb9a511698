package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"podforge/internal/logging"
	"podforge/internal/media/ffmpeg"
	"podforge/internal/queue"
	"podforge/internal/services"
	"podforge/internal/srt"
)

// RenderOptions carries the per-run parameters the batch renderer needs.
type RenderOptions struct {
	Format        queue.Format
	FPS           int
	VideoCodec    string
	AudioCodec    string
	AudioBitrate  string
	Style         ffmpeg.SubtitleStyle
	BurnSubtitles bool
	UseGPU        bool
	Workers       int
	CoverPath     string
	SegmentsDir   string
	SubsDir       string
}

// Renderer turns batches of acquired audio into encoded video segments.
// Hardware encoding is attempted when the capability probe allowed it; the
// first hardware failure flips the whole run to software so later batches
// skip the doomed attempt.
type Renderer struct {
	media      MediaEngine
	logger     *slog.Logger
	gpuDisabled atomic.Bool
}

// NewRenderer constructs a Renderer.
func NewRenderer(media MediaEngine, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{media: media, logger: logger}
}

// RenderBatches renders every batch concurrently (bounded by opts.Workers)
// and returns the segment paths in batch order. A progress callback fires
// after each finished batch with the number completed so far.
func (r *Renderer) RenderBatches(ctx context.Context, audio []LineAudio, batches []Batch, opts RenderOptions, onBatchDone func(completed int)) ([]string, error) {
	if len(batches) == 0 {
		return nil, services.Wrap(services.ErrValidation, "segments", "render", "no batches to render", nil)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	segments := make([]string, len(batches))
	var completed atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, batch := range batches {
		batch := batch
		group.Go(func() error {
			segmentPath, err := r.renderBatch(groupCtx, audio, batch, opts)
			if err != nil {
				return err
			}
			segments[batch.Index] = segmentPath
			if onBatchDone != nil {
				onBatchDone(int(completed.Add(1)))
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return segments, nil
}

func (r *Renderer) renderBatch(ctx context.Context, audio []LineAudio, batch Batch, opts RenderOptions) (string, error) {
	mergedPath := filepath.Join(opts.SegmentsDir, fmt.Sprintf("batch_%03d.wav", batch.Index))
	inputs := make([]ffmpeg.AudioInput, 0, batch.Len())
	for i := batch.Start; i < batch.End; i++ {
		inputs = append(inputs, ffmpeg.AudioInput{
			Path:          audio[i].Path,
			TrailingDelay: audio[i].Line.Delay(),
		})
	}
	if err := r.media.MergeAudio(ctx, inputs, mergedPath); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "segments", "merge audio",
			fmt.Sprintf("batch %d", batch.Index), err)
	}

	subtitlePath := ""
	if opts.BurnSubtitles {
		subtitlePath = filepath.Join(opts.SubsDir, fmt.Sprintf("batch_%03d.srt", batch.Index))
		if err := srt.WriteFile(subtitlePath, BatchTimeline(audio, batch)); err != nil {
			return "", err
		}
	}

	width, height := opts.Format.Dimensions()
	segmentPath := filepath.Join(opts.SegmentsDir, fmt.Sprintf("segment_%03d.mp4", batch.Index))
	spec := ffmpeg.SegmentSpec{
		ImagePath:    opts.CoverPath,
		AudioPath:    mergedPath,
		SubtitlePath: subtitlePath,
		OutputPath:   segmentPath,
		Width:        width,
		Height:       height,
		FPS:          opts.FPS,
		VideoCodec:   opts.VideoCodec,
		AudioCodec:   opts.AudioCodec,
		AudioBitrate: opts.AudioBitrate,
		Style:        opts.Style,
		UseGPU:       opts.UseGPU && !r.gpuDisabled.Load(),
	}

	// Only a non-zero encoder exit triggers the software retry; a missing
	// binary or cancelled context fails the run as-is.
	err := r.media.RenderSegment(ctx, spec)
	if err != nil && spec.UseGPU && ffmpeg.IsExitError(err) {
		r.gpuDisabled.Store(true)
		r.logger.Warn("hardware encode failed, retrying batch on software",
			logging.Int("batch", batch.Index),
			logging.Error(err))
		spec.UseGPU = false
		err = r.media.RenderSegment(ctx, spec)
	}
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "segments", "render",
			fmt.Sprintf("batch %d", batch.Index), err)
	}
	return segmentPath, nil
}
