package srt

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"podforge/internal/fileutil"
)

// Cue is one subtitle entry: a numbered caption spanning [Start, End).
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// FormatTimestamp renders a duration in SRT form (HH:MM:SS,mmm).
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	hours := total / 3_600_000
	minutes := (total % 3_600_000) / 60_000
	seconds := (total % 60_000) / 1000
	millis := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// ParseTimestamp converts an SRT timestamp into a duration. Periods are
// accepted in place of the standard comma separator.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}

// Render serializes cues into SRT text.
func Render(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteByte('\n')
		}
		index := cue.Index
		if index == 0 {
			index = i + 1
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text)
	}
	return b.String()
}

// WriteFile serializes cues to an SRT file, creating parent directories. The
// file is synced to disk: subtitle sidecars are delivered artifacts and must
// not survive a crash truncated.
func WriteFile(path string, cues []Cue) error {
	if err := fileutil.WriteFileSync(path, []byte(Render(cues)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// CueCount returns the number of cue blocks in an SRT file.
func CueCount(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return 0, nil
	}
	count := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count, nil
}

// Bounds returns the earliest cue start and the latest cue end in an SRT file.
func Bounds(path string) (first, last time.Duration, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read srt: %w", err)
	}
	found := false
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		if start, perr := ParseTimestamp(parts[0]); perr == nil {
			if !found || start < first {
				first = start
			}
			found = true
		}
		if end, perr := ParseTimestamp(parts[1]); perr == nil && end > last {
			last = end
		}
	}
	return first, last, nil
}
