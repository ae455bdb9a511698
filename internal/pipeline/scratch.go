package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scratch is the run-scoped working directory tree. Everything under Root is
// keyed by task ID so concurrent runs never collide and a crashed run leaves
// an inspectable directory behind.
type Scratch struct {
	Root     string
	Audio    string
	Images   string
	Segments string
	Subs     string
}

// NewScratch creates the scratch tree for one run under stagingDir.
func NewScratch(stagingDir, taskID string) (*Scratch, error) {
	root := filepath.Join(stagingDir, taskID)
	s := &Scratch{
		Root:     root,
		Audio:    filepath.Join(root, "audio"),
		Images:   filepath.Join(root, "images"),
		Segments: filepath.Join(root, "segments"),
		Subs:     filepath.Join(root, "subs"),
	}
	for _, dir := range []string{s.Audio, s.Images, s.Segments, s.Subs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
		}
	}
	return s, nil
}

// Cleanup removes the entire scratch tree.
func (s *Scratch) Cleanup() error {
	return os.RemoveAll(s.Root)
}
