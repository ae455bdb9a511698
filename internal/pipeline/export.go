package pipeline

import (
	"context"
	"path/filepath"

	"podforge/internal/fileutil"
	"podforge/internal/media/ffmpeg"
	"podforge/internal/queue"
	"podforge/internal/srt"
)

// export concatenates the rendered segments without re-encoding and moves
// the final artifacts into the output directory, named after the task ID.
// A non-empty burnSubtitlePath means captions were not rendered into the
// segments and get one burn pass over the assembled video here.
func (r *Runner) export(ctx context.Context, task *queue.Task, scratch *Scratch, segments []string, cues []srt.Cue, burnSubtitlePath string, style ffmpeg.SubtitleStyle) (string, string, error) {
	listPath := filepath.Join(scratch.Segments, "segments.txt")
	assembled := filepath.Join(scratch.Root, "assembled.mp4")
	if err := r.media.Concat(ctx, segments, listPath, assembled); err != nil {
		return "", "", err
	}

	if burnSubtitlePath != "" {
		burned := filepath.Join(scratch.Root, "assembled_subtitled.mp4")
		if err := r.media.BurnSubtitles(ctx, assembled, burnSubtitlePath, burned, style); err != nil {
			return "", "", err
		}
		assembled = burned
	}

	if err := fileutil.EnsureDir(r.cfg.Paths.OutputDir); err != nil {
		return "", "", err
	}
	videoPath := filepath.Join(r.cfg.Paths.OutputDir, task.ID+".mp4")
	if err := fileutil.CopyFile(assembled, videoPath); err != nil {
		return "", "", err
	}

	subtitlePath := filepath.Join(r.cfg.Paths.OutputDir, task.ID+".srt")
	if err := srt.WriteFile(subtitlePath, cues); err != nil {
		return "", "", err
	}
	return videoPath, subtitlePath, nil
}
