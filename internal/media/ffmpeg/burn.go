package ffmpeg

import (
	"context"
	"fmt"
)

// BurnSubtitlesArgs builds the argument list for rendering an SRT file onto
// an existing video. The video stream is re-encoded with the software
// encoder; audio is stream-copied.
func BurnSubtitlesArgs(videoPath, subtitlePath, outputPath string, style SubtitleStyle) []string {
	filter := fmt.Sprintf("subtitles=%s:force_style='%s'",
		EscapeFilterPath(subtitlePath), style.ForceStyle())
	return []string{
		"-y",
		"-i", videoPath,
		"-vf", filter,
		"-c:v", cpuCodec,
		"-preset", cpuPreset,
		"-c:a", "copy",
		outputPath,
	}
}

// BurnSubtitles burns subtitlePath over videoPath, writing outputPath. Used
// by the exporter when captions were not already rendered into the segments.
func (c *Client) BurnSubtitles(ctx context.Context, videoPath, subtitlePath, outputPath string, style SubtitleStyle) error {
	return c.run(ctx, BurnSubtitlesArgs(videoPath, subtitlePath, outputPath, style))
}
