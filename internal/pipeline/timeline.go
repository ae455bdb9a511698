package pipeline

import (
	"fmt"
	"time"

	"podforge/internal/srt"
	"podforge/internal/textutil"
)

// BuildTimeline computes the subtitle cues for a full run. The cursor starts
// at zero; each line occupies [cursor, cursor+duration) and then advances by
// the duration plus the line's trailing delay. Stage annotations are stripped
// from cue text and the speaker name is prefixed.
func BuildTimeline(audio []LineAudio) []srt.Cue {
	cues := make([]srt.Cue, 0, len(audio))
	cursor := time.Duration(0)
	for _, entry := range audio {
		cues = append(cues, srt.Cue{
			Start: cursor,
			End:   cursor + entry.Duration,
			Text:  cueText(entry),
		})
		cursor += entry.Duration + entry.Line.Delay()
	}
	return cues
}

// BatchTimeline computes cues for one batch with timestamps relative to the
// batch's own start. The delay after the batch's final line is excluded, so
// the last cue ends exactly at the merged track's end.
func BatchTimeline(audio []LineAudio, batch Batch) []srt.Cue {
	cues := make([]srt.Cue, 0, batch.Len())
	cursor := time.Duration(0)
	for i := batch.Start; i < batch.End; i++ {
		entry := audio[i]
		cues = append(cues, srt.Cue{
			Start: cursor,
			End:   cursor + entry.Duration,
			Text:  cueText(entry),
		})
		if i < batch.End-1 {
			cursor += entry.Duration + entry.Line.Delay()
		}
	}
	return cues
}

// BatchDuration returns the length of a batch's merged audio track: all line
// durations plus the delays strictly between lines.
func BatchDuration(audio []LineAudio, batch Batch) time.Duration {
	total := time.Duration(0)
	for i := batch.Start; i < batch.End; i++ {
		total += audio[i].Duration
		if i < batch.End-1 {
			total += audio[i].Line.Delay()
		}
	}
	return total
}

func cueText(entry LineAudio) string {
	return fmt.Sprintf("%s: %s", entry.Line.Character.Name, textutil.StripAnnotations(entry.Line.Content))
}
