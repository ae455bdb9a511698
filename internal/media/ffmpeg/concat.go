package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteConcatList writes an ffmpeg concat-demuxer list file referencing the
// given segment paths in order. Paths are made absolute and single quotes are
// escaped the way the demuxer expects.
func WriteConcatList(listPath string, segmentPaths []string) error {
	var b strings.Builder
	for _, segment := range segmentPaths {
		abs, err := filepath.Abs(segment)
		if err != nil {
			return fmt.Errorf("resolve segment path: %w", err)
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

// Concat joins the segments into one container at outputPath without
// re-encoding. All segments must share identical stream parameters, which
// holds because every segment render uses the same encode settings.
func (c *Client) Concat(ctx context.Context, segmentPaths []string, listPath, outputPath string) error {
	if len(segmentPaths) == 0 {
		return errors.New("concat requires at least one segment")
	}
	if err := WriteConcatList(listPath, segmentPaths); err != nil {
		return err
	}
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	}
	return c.run(ctx, args)
}
