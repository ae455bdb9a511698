package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"podforge/internal/logging"
	"podforge/internal/media/imageproc"
	"podforge/internal/queue"
	"podforge/internal/services/scriptapi"
)

// Speakers summarizes the distinct characters of a script for prompt
// construction. Order follows first appearance.
type Speakers struct {
	Names  []string
	Male   int
	Female int
}

// CollectSpeakers extracts the distinct characters from the line list.
func CollectSpeakers(lines []scriptapi.Line) Speakers {
	var speakers Speakers
	seen := make(map[int64]struct{})
	for _, line := range lines {
		if _, ok := seen[line.Character.ID]; ok {
			continue
		}
		seen[line.Character.ID] = struct{}{}
		speakers.Names = append(speakers.Names, line.Character.Name)
		switch strings.ToUpper(line.Character.Gender) {
		case "MALE":
			speakers.Male++
		case "FEMALE":
			speakers.Female++
		}
	}
	return speakers
}

// BuildCoverPrompt assembles the image generation prompt from script
// metadata, the cast, and the output format. Short-form topics get a
// situational scene; everything else gets the podcast studio treatment.
func BuildCoverPrompt(meta scriptapi.ScriptMeta, speakers Speakers, format queue.Format) string {
	topic := meta.TopicTitle
	if topic == "" {
		topic = meta.Title
	}

	var scene string
	if meta.TopicType == "SHORT" {
		scene = fmt.Sprintf(
			"A photorealistic scene of two people having a natural conversation about %q in a fitting real-world setting.",
			topic)
	} else {
		scene = fmt.Sprintf(
			"A photorealistic podcast studio scene about %q with professional microphones, headphones, and warm studio lighting.",
			topic)
	}

	var b strings.Builder
	b.WriteString(scene)
	fmt.Fprintf(&b, " The image shows %d people", len(speakers.Names))
	if speakers.Male > 0 || speakers.Female > 0 {
		fmt.Fprintf(&b, " (%d male, %d female)", speakers.Male, speakers.Female)
	}
	if len(speakers.Names) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(speakers.Names, ", "))
	}
	b.WriteString(".")
	if meta.LessonTitle != "" {
		fmt.Fprintf(&b, " The conversation is part of a lesson titled %q.", meta.LessonTitle)
	}
	if format == queue.FormatVertical {
		b.WriteString(" Portrait orientation with the speakers stacked vertically in the composition.")
	} else {
		b.WriteString(" Landscape orientation with the speakers side by side.")
	}
	b.WriteString(" No text, captions, or watermarks in the image.")
	return b.String()
}

// PlaceholderLabel is the text rendered onto the fallback cover.
func PlaceholderLabel(speakers Speakers) string {
	return fmt.Sprintf("Podcast: %d people (%s)", len(speakers.Names), strings.Join(speakers.Names, ", "))
}

// PrepareCover produces the single cover frame every segment shares, sized
// exactly to the output format. Generation failures of any kind degrade to
// the placeholder; only filesystem problems abort the run.
func PrepareCover(ctx context.Context, images ImageService, logger *slog.Logger, meta scriptapi.ScriptMeta, speakers Speakers, format queue.Format, skipGeneration bool, imagesDir string) (string, error) {
	width, height := format.Dimensions()
	coverPath := filepath.Join(imagesDir, "cover.png")

	if !skipGeneration && images != nil {
		prompt := BuildCoverPrompt(meta, speakers, format)
		if err := generateCover(ctx, images, prompt, coverPath, width, height, imagesDir); err != nil {
			logger.Warn("cover generation failed, using placeholder", logging.Error(err))
		} else {
			return coverPath, nil
		}
	}

	if err := imageproc.PlaceholderFile(coverPath, width, height, PlaceholderLabel(speakers)); err != nil {
		return "", err
	}
	return coverPath, nil
}

func generateCover(ctx context.Context, images ImageService, prompt, coverPath string, width, height int, imagesDir string) error {
	data, err := images.GenerateImage(ctx, prompt)
	if err != nil {
		return err
	}
	rawPath := filepath.Join(imagesDir, "cover_raw")
	if err := os.WriteFile(rawPath, data, 0o644); err != nil {
		return fmt.Errorf("write raw cover: %w", err)
	}
	return imageproc.FitCropFile(rawPath, coverPath, width, height)
}
