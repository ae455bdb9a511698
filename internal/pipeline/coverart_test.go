package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podforge/internal/logging"
	"podforge/internal/queue"
	"podforge/internal/services/scriptapi"
)

func castLines() []scriptapi.Line {
	return []scriptapi.Line{
		{Character: scriptapi.Character{ID: 1, Name: "Ana", Gender: "FEMALE"}},
		{Character: scriptapi.Character{ID: 2, Name: "Ben", Gender: "MALE"}},
		{Character: scriptapi.Character{ID: 1, Name: "Ana", Gender: "FEMALE"}},
	}
}

func TestCollectSpeakers(t *testing.T) {
	speakers := CollectSpeakers(castLines())
	if len(speakers.Names) != 2 || speakers.Names[0] != "Ana" || speakers.Names[1] != "Ben" {
		t.Fatalf("names = %v", speakers.Names)
	}
	if speakers.Male != 1 || speakers.Female != 1 {
		t.Fatalf("genders = %d male, %d female", speakers.Male, speakers.Female)
	}
}

func TestBuildCoverPromptLongForm(t *testing.T) {
	meta := scriptapi.ScriptMeta{TopicTitle: "Job interviews", TopicType: "LONG"}
	prompt := BuildCoverPrompt(meta, CollectSpeakers(castLines()), queue.FormatHorizontal)

	for _, want := range []string{
		"podcast studio",
		`"Job interviews"`,
		"2 people",
		"(1 male, 1 female)",
		"Ana, Ben",
		"side by side",
		"No text",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildCoverPromptShortFormVertical(t *testing.T) {
	meta := scriptapi.ScriptMeta{TopicTitle: "Ordering coffee", TopicType: "SHORT"}
	prompt := BuildCoverPrompt(meta, CollectSpeakers(castLines()), queue.FormatVertical)

	if strings.Contains(prompt, "podcast studio") {
		t.Fatalf("short topics use a situational scene:\n%s", prompt)
	}
	if !strings.Contains(prompt, "conversation") || !strings.Contains(prompt, "stacked vertically") {
		t.Fatalf("prompt = %s", prompt)
	}
}

func TestBuildCoverPromptIncludesLessonTitle(t *testing.T) {
	meta := scriptapi.ScriptMeta{TopicTitle: "Small talk", TopicType: "LONG", LessonTitle: "Unit 3: At the office"}
	prompt := BuildCoverPrompt(meta, CollectSpeakers(castLines()), queue.FormatHorizontal)
	if !strings.Contains(prompt, `lesson titled "Unit 3: At the office"`) {
		t.Fatalf("lesson context missing:\n%s", prompt)
	}

	bare := BuildCoverPrompt(scriptapi.ScriptMeta{TopicTitle: "Small talk"}, CollectSpeakers(castLines()), queue.FormatHorizontal)
	if strings.Contains(bare, "lesson titled") {
		t.Fatalf("no lesson sentence expected without a title:\n%s", bare)
	}
}

func TestPlaceholderLabel(t *testing.T) {
	label := PlaceholderLabel(CollectSpeakers(castLines()))
	if label != "Podcast: 2 people (Ana, Ben)" {
		t.Fatalf("label = %q", label)
	}
}

type fakeImages struct {
	prompt string
	data   []byte
	err    error
}

func (f *fakeImages) GenerateImage(_ context.Context, prompt string) ([]byte, error) {
	f.prompt = prompt
	return f.data, f.err
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func coverSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open cover: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode cover: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestPrepareCoverGeneratesAndCrops(t *testing.T) {
	images := &fakeImages{data: encodePNG(t, 640, 640)}
	meta := scriptapi.ScriptMeta{TopicTitle: "Travel", TopicType: "LONG"}

	path, err := PrepareCover(context.Background(), images, logging.NewNop(), meta,
		CollectSpeakers(castLines()), queue.FormatVertical, false, t.TempDir())
	if err != nil {
		t.Fatalf("PrepareCover: %v", err)
	}
	if w, h := coverSize(t, path); w != 1080 || h != 1920 {
		t.Fatalf("cover size = %dx%d", w, h)
	}
	if images.prompt == "" {
		t.Fatal("generator never received a prompt")
	}
}

func TestPrepareCoverFallsBackToPlaceholderOnFailure(t *testing.T) {
	images := &fakeImages{err: errors.New("provider down")}
	path, err := PrepareCover(context.Background(), images, logging.NewNop(), scriptapi.ScriptMeta{},
		CollectSpeakers(castLines()), queue.FormatHorizontal, false, t.TempDir())
	if err != nil {
		t.Fatalf("PrepareCover: %v", err)
	}
	if w, h := coverSize(t, path); w != 1920 || h != 1080 {
		t.Fatalf("placeholder size = %dx%d", w, h)
	}
}

func TestPrepareCoverSkipsGenerationWhenRequested(t *testing.T) {
	images := &fakeImages{data: encodePNG(t, 640, 640)}
	dir := t.TempDir()
	path, err := PrepareCover(context.Background(), images, logging.NewNop(), scriptapi.ScriptMeta{},
		CollectSpeakers(castLines()), queue.FormatHorizontal, true, dir)
	if err != nil {
		t.Fatalf("PrepareCover: %v", err)
	}
	if images.prompt != "" {
		t.Fatal("skip flag must prevent generation")
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("cover at %s", path)
	}
}

func TestPrepareCoverNilServiceUsesPlaceholder(t *testing.T) {
	path, err := PrepareCover(context.Background(), nil, logging.NewNop(), scriptapi.ScriptMeta{},
		Speakers{Names: []string{"Solo"}}, queue.FormatHorizontal, false, t.TempDir())
	if err != nil {
		t.Fatalf("PrepareCover: %v", err)
	}
	if w, h := coverSize(t, path); w != 1920 || h != 1080 {
		t.Fatalf("size = %dx%d", w, h)
	}
}
