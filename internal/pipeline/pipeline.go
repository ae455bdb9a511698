package pipeline

import (
	"context"
	"time"

	"podforge/internal/media/ffmpeg"
	"podforge/internal/services/scriptapi"
)

// Progress checkpoints reached at the end of each stage. Values are percent
// of total work and are fixed regardless of line count.
const (
	ProgressFetch     = 5.0
	ProgressAudio     = 25.0
	ProgressImage     = 40.0
	ProgressSubtitles = 45.0
	ProgressSegments  = 85.0
	ProgressExport    = 100.0
)

// ScriptService is the slice of the script backend the pipeline needs.
type ScriptService interface {
	FetchLines(ctx context.Context, scriptID string) ([]scriptapi.Line, error)
	FetchScriptMeta(ctx context.Context, scriptID string) (scriptapi.ScriptMeta, error)
	DownloadAudio(ctx context.Context, audioRef, destPath string) error
	UpdateScriptStatus(ctx context.Context, scriptID, videoURL string) error
}

// ImageService generates cover art. A nil ImageService means generation is
// unavailable and the placeholder path is used.
type ImageService interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// MediaEngine is the slice of the ffmpeg client the pipeline needs.
type MediaEngine interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	MergeAudio(ctx context.Context, inputs []ffmpeg.AudioInput, outputPath string) error
	RenderSegment(ctx context.Context, spec ffmpeg.SegmentSpec) error
	Concat(ctx context.Context, segmentPaths []string, listPath, outputPath string) error
	BurnSubtitles(ctx context.Context, videoPath, subtitlePath, outputPath string, style ffmpeg.SubtitleStyle) error
}

// LineAudio pairs a dialogue line with its acquired local audio file.
type LineAudio struct {
	Line     scriptapi.Line
	Path     string
	Duration time.Duration
}
