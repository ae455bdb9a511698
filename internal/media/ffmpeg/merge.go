package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AudioInput is one dialogue line's audio plus the pause that follows it.
// TrailingDelay applies strictly between lines: the delay after a batch's
// final line never extends the merged track.
type AudioInput struct {
	Path          string
	TrailingDelay time.Duration
}

// mergeSampleRate is the common rate every stream is resampled to before
// concatenation. The concat filter refuses inputs whose sample rate or
// channel layout differ, and acquired audio arrives in whatever format the
// backend stored (stereo MP3, 24 kHz TTS output).
const mergeSampleRate = 44100

// BuildMergeFilter constructs the filter_complex graph that joins the inputs
// in order, inserting a silent gap after every input except the last. Each
// line stream is resampled to mono at the common rate so the generated gaps
// and the source audio always share concat-compatible parameters.
func BuildMergeFilter(inputs []AudioInput) string {
	var stages []string
	var labels []string
	silenceCount := 0
	for i, input := range inputs {
		lineLabel := fmt.Sprintf("[ln%d]", i)
		stages = append(stages, fmt.Sprintf(
			"[%d:a]aresample=%d,aformat=channel_layouts=mono%s", i, mergeSampleRate, lineLabel))
		labels = append(labels, lineLabel)
		if i == len(inputs)-1 || input.TrailingDelay <= 0 {
			continue
		}
		gapLabel := fmt.Sprintf("[gap%d]", silenceCount)
		stages = append(stages, fmt.Sprintf(
			"aevalsrc=0:d=%.3f:s=%d%s", input.TrailingDelay.Seconds(), mergeSampleRate, gapLabel))
		labels = append(labels, gapLabel)
		silenceCount++
	}
	stages = append(stages, fmt.Sprintf(
		"%sconcat=n=%d:v=0:a=1[aout]", strings.Join(labels, ""), len(labels)))
	return strings.Join(stages, ";")
}

// MergeAudio concatenates the inputs into one WAV track at outputPath.
func (c *Client) MergeAudio(ctx context.Context, inputs []AudioInput, outputPath string) error {
	if len(inputs) == 0 {
		return errors.New("merge requires at least one audio input")
	}
	args := []string{"-y"}
	for _, input := range inputs {
		args = append(args, "-i", input.Path)
	}
	args = append(args,
		"-filter_complex", BuildMergeFilter(inputs),
		"-map", "[aout]",
		"-c:a", "pcm_s16le",
		outputPath,
	)
	return c.run(ctx, args)
}
