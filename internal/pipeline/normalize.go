package pipeline

import (
	"podforge/internal/services"
	"podforge/internal/services/scriptapi"
)

// Normalize prepares fetched lines for assembly: lines without an audio
// reference are dropped (they cannot produce a segment), and the list is
// truncated to maxLines when positive. It returns the surviving lines and
// the number skipped. An empty result is a validation error because a run
// with no renderable lines can never complete.
func Normalize(lines []scriptapi.Line, maxLines int) ([]scriptapi.Line, int, error) {
	kept := make([]scriptapi.Line, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		if line.AudioRef == "" {
			skipped++
			continue
		}
		kept = append(kept, line)
	}
	if maxLines > 0 && len(kept) > maxLines {
		kept = kept[:maxLines]
	}
	if len(kept) == 0 {
		return nil, skipped, services.Wrap(services.ErrValidation, "fetch", "normalize",
			"script has no lines with audio", nil)
	}
	return kept, skipped, nil
}
