package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a render task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status is final. Terminal tasks are never
// transitioned again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Format identifies the output aspect ratio for a task.
type Format string

const (
	FormatHorizontal Format = "horizontal" // 1920x1080
	FormatVertical   Format = "vertical"   // 1080x1920
)

// ParseFormat converts a string into a known Format, defaulting to horizontal.
func ParseFormat(value string) Format {
	if strings.EqualFold(strings.TrimSpace(value), string(FormatVertical)) {
		return FormatVertical
	}
	return FormatHorizontal
}

// Dimensions returns the pixel dimensions for the format.
func (f Format) Dimensions() (width, height int) {
	if f == FormatVertical {
		return 1080, 1920
	}
	return 1920, 1080
}

// Task represents one render run from submission to terminal state.
type Task struct {
	ID                  string
	ScriptID            string
	Status              Status
	Progress            float64
	Message             string
	ErrorMessage        string
	VideoPath           string
	SubtitlePath        string
	Format              Format
	SkipImageGeneration bool
	MaxLines            int
	BurnSubtitles       bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SetProgress updates progress and message together.
func (t *Task) SetProgress(percent float64, message string) {
	t.Progress = percent
	t.Message = message
}

// SetFailed marks the task failed with the given error message. Progress is
// reset to 0 by policy; callers must not read that as "no work happened".
func (t *Task) SetFailed(message string) {
	t.Status = StatusFailed
	t.ErrorMessage = message
	t.Progress = 0
	t.Message = message
}

// SetCompleted marks the task completed with output artifact paths.
func (t *Task) SetCompleted(videoPath, subtitlePath, message string) {
	t.Status = StatusCompleted
	t.Progress = 100
	t.Message = message
	t.ErrorMessage = ""
	t.VideoPath = videoPath
	t.SubtitlePath = subtitlePath
}
