package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeExecutor struct {
	calls  [][]string
	stdout string
	stderr string
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) (string, string, error) {
	call := append([]string{binary}, args...)
	f.calls = append(f.calls, call)
	return f.stdout, f.stderr, f.err
}

func newTestClient(t *testing.T, exec Executor) *Client {
	t.Helper()
	client, err := New("ffmpeg", "ffprobe", WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestProbeDuration(t *testing.T) {
	exec := &fakeExecutor{stdout: "12.345\n"}
	client := newTestClient(t, exec)

	got, err := client.ProbeDuration(context.Background(), "/tmp/a.mp3")
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	want := time.Duration(12.345 * float64(time.Second))
	if got != want {
		t.Fatalf("duration = %v, want %v", got, want)
	}
	call := exec.calls[0]
	if call[0] != "ffprobe" {
		t.Fatalf("binary = %s", call[0])
	}
	joined := strings.Join(call, " ")
	if !strings.Contains(joined, "-show_entries format=duration") ||
		!strings.Contains(joined, "default=noprint_wrappers=1:nokey=1") {
		t.Fatalf("unexpected probe args: %s", joined)
	}
}

func TestProbeDurationRejectsGarbage(t *testing.T) {
	client := newTestClient(t, &fakeExecutor{stdout: "N/A"})
	if _, err := client.ProbeDuration(context.Background(), "x"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDetectCapabilities(t *testing.T) {
	withNVENC := newTestClient(t, &fakeExecutor{stdout: "V....D h264_nvenc  NVIDIA NVENC H.264 encoder"})
	if caps := withNVENC.DetectCapabilities(context.Background()); !caps.NVENC {
		t.Fatal("expected NVENC detected")
	}

	without := newTestClient(t, &fakeExecutor{stdout: "V..... libx264  H.264"})
	if caps := without.DetectCapabilities(context.Background()); caps.NVENC {
		t.Fatal("expected no NVENC")
	}

	failing := newTestClient(t, &fakeExecutor{err: fmt.Errorf("exec: not found")})
	if caps := failing.DetectCapabilities(context.Background()); caps.NVENC {
		t.Fatal("probe failure must report no hardware support")
	}
}

func TestBuildMergeFilterInsertsGapsBetweenLinesOnly(t *testing.T) {
	inputs := []AudioInput{
		{Path: "a.mp3", TrailingDelay: 500 * time.Millisecond},
		{Path: "b.mp3", TrailingDelay: 0},
		{Path: "c.mp3", TrailingDelay: time.Second}, // last line: delay ignored
	}
	filter := BuildMergeFilter(inputs)

	if !strings.Contains(filter, "aevalsrc=0:d=0.500:s=44100[gap0]") {
		t.Fatalf("missing first gap: %s", filter)
	}
	if strings.Contains(filter, "d=1.000") {
		t.Fatalf("trailing delay after final input must not produce silence: %s", filter)
	}
	if !strings.Contains(filter, "[ln0][gap0][ln1][ln2]concat=n=4:v=0:a=1[aout]") {
		t.Fatalf("unexpected concat stage: %s", filter)
	}
}

func TestBuildMergeFilterNormalizesEveryInput(t *testing.T) {
	// Acquired audio may be stereo or sampled at any rate; every stream must
	// be conformed before concat or ffmpeg rejects the graph.
	inputs := []AudioInput{
		{Path: "stereo.mp3", TrailingDelay: 250 * time.Millisecond},
		{Path: "tts_24k.mp3"},
	}
	filter := BuildMergeFilter(inputs)
	for i := range inputs {
		want := fmt.Sprintf("[%d:a]aresample=44100,aformat=channel_layouts=mono[ln%d]", i, i)
		if !strings.Contains(filter, want) {
			t.Errorf("input %d not normalized: %s", i, filter)
		}
	}
	if !strings.Contains(filter, "aevalsrc=0:d=0.250:s=44100[gap0]") {
		t.Fatalf("gap sample rate must match the normalized streams: %s", filter)
	}
}

func TestBuildMergeFilterSingleInput(t *testing.T) {
	filter := BuildMergeFilter([]AudioInput{{Path: "only.mp3", TrailingDelay: 2 * time.Second}})
	if filter != "[0:a]aresample=44100,aformat=channel_layouts=mono[ln0];[ln0]concat=n=1:v=0:a=1[aout]" {
		t.Fatalf("filter = %s", filter)
	}
}

func TestMergeAudioArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client := newTestClient(t, exec)
	inputs := []AudioInput{
		{Path: "a.mp3", TrailingDelay: 250 * time.Millisecond},
		{Path: "b.mp3"},
	}
	if err := client.MergeAudio(context.Background(), inputs, "out.wav"); err != nil {
		t.Fatalf("MergeAudio: %v", err)
	}
	joined := strings.Join(exec.calls[0], " ")
	if !strings.Contains(joined, "-i a.mp3 -i b.mp3") {
		t.Fatalf("inputs missing: %s", joined)
	}
	if !strings.Contains(joined, "-map [aout] -c:a pcm_s16le out.wav") {
		t.Fatalf("output args missing: %s", joined)
	}
}

func TestMergeAudioRequiresInput(t *testing.T) {
	client := newTestClient(t, &fakeExecutor{})
	if err := client.MergeAudio(context.Background(), nil, "out.wav"); err == nil {
		t.Fatal("expected error for empty input list")
	}
}

func TestBuildSegmentFilterGeometry(t *testing.T) {
	spec := SegmentSpec{Width: 1920, Height: 1080}
	filter := BuildSegmentFilter(spec)

	checks := []string{
		"[0:v]scale=1920:1080:force_original_aspect_ratio=decrease",
		"pad=1920:1080:(ow-iw)/2:(oh-ih)/2",
		"vignette=angle=PI/4",
		"drawbox=x=480:y=440:w=960:h=200:color=black@0.5:t=fill[bg]",
		"[1:a]showwaves=s=960x100:mode=line:n=1:colors=white,format=rgba[waves]",
		"[waves]split[w1][w2];[w2]vflip[w2f];[w1][w2f]vstack[spectrum]",
		"[bg][spectrum]overlay=(1920-w)/2:(1080-h)/2:eof_action=pass[outv]",
	}
	for _, want := range checks {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}
	if strings.Contains(filter, "subtitles=") {
		t.Fatalf("no subtitle stage expected: %s", filter)
	}
}

func TestBuildSegmentFilterVerticalGeometry(t *testing.T) {
	filter := BuildSegmentFilter(SegmentSpec{Width: 1080, Height: 1920})
	if !strings.Contains(filter, "showwaves=s=540x100") {
		t.Fatalf("vertical spectrum width wrong: %s", filter)
	}
	if !strings.Contains(filter, "drawbox=x=270:y=860:w=540:h=200") {
		t.Fatalf("vertical box wrong: %s", filter)
	}
}

func TestBuildSegmentFilterWithSubtitles(t *testing.T) {
	spec := SegmentSpec{
		Width: 1920, Height: 1080,
		SubtitlePath: `C:\work\batch 0.srt`,
		Style:        SubtitleStyle{FontName: "Arial", FontSize: 20, Outline: 2},
	}
	filter := BuildSegmentFilter(spec)
	if !strings.Contains(filter, `subtitles=C\:/work/batch 0.srt:force_style='`) {
		t.Fatalf("subtitle path not escaped: %s", filter)
	}
	if !strings.Contains(filter, "FontName=Arial,FontSize=20,PrimaryColour=&H00FFFFFF") {
		t.Fatalf("force_style missing: %s", filter)
	}
	if !strings.Contains(filter, "BorderStyle=4,Outline=2,Shadow=0,Alignment=2,MarginV=30") {
		t.Fatalf("force_style tail missing: %s", filter)
	}
}

func TestSegmentArgsEncoderSelection(t *testing.T) {
	base := SegmentSpec{
		ImagePath: "cover.png", AudioPath: "merged.wav", OutputPath: "seg.mp4",
		Width: 1920, Height: 1080, FPS: 24,
	}

	gpu := base
	gpu.UseGPU = true
	gpuJoined := strings.Join(SegmentArgs(gpu), " ")
	if !strings.Contains(gpuJoined, "-hwaccel cuda") {
		t.Fatalf("GPU args missing hwaccel: %s", gpuJoined)
	}
	if !strings.Contains(gpuJoined, "-c:v h264_nvenc -preset p1") {
		t.Fatalf("GPU encoder args wrong: %s", gpuJoined)
	}

	cpuJoined := strings.Join(SegmentArgs(base), " ")
	if strings.Contains(cpuJoined, "hwaccel") {
		t.Fatalf("CPU args must not request hwaccel: %s", cpuJoined)
	}
	if !strings.Contains(cpuJoined, "-c:v libx264 -preset ultrafast") {
		t.Fatalf("CPU encoder args wrong: %s", cpuJoined)
	}

	for _, joined := range []string{gpuJoined, cpuJoined} {
		for _, want := range []string{
			"-loop 1 -i cover.png", "-i merged.wav",
			"-map [outv]", "-map 1:a",
			"-r 24", "-pix_fmt yuv420p",
			"-c:a aac", "-b:a 192k", "-shortest",
		} {
			if !strings.Contains(joined, want) {
				t.Errorf("segment args missing %q: %s", want, joined)
			}
		}
	}
}

func TestSegmentArgsConfiguredCodecs(t *testing.T) {
	spec := SegmentSpec{
		ImagePath: "cover.png", AudioPath: "merged.wav", OutputPath: "seg.mp4",
		Width: 1920, Height: 1080,
		VideoCodec: "libx265", AudioCodec: "libopus",
	}
	joined := strings.Join(SegmentArgs(spec), " ")
	if !strings.Contains(joined, "-c:v libx265") {
		t.Fatalf("configured video codec not used: %s", joined)
	}
	if !strings.Contains(joined, "-c:a libopus") {
		t.Fatalf("configured audio codec not used: %s", joined)
	}

	gpu := spec
	gpu.UseGPU = true
	gpuJoined := strings.Join(SegmentArgs(gpu), " ")
	if !strings.Contains(gpuJoined, "-c:v h264_nvenc") {
		t.Fatalf("hardware path must keep the NVENC encoder: %s", gpuJoined)
	}
}

func TestBurnSubtitlesArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client := newTestClient(t, exec)
	style := SubtitleStyle{FontName: "Arial", FontSize: 20, Outline: 2}

	err := client.BurnSubtitles(context.Background(), "assembled.mp4", "/subs/full.srt", "out.mp4", style)
	if err != nil {
		t.Fatalf("BurnSubtitles: %v", err)
	}
	joined := strings.Join(exec.calls[0], " ")
	if !strings.Contains(joined, "-i assembled.mp4") {
		t.Fatalf("input missing: %s", joined)
	}
	if !strings.Contains(joined, "subtitles=/subs/full.srt:force_style='FontName=Arial,FontSize=20") {
		t.Fatalf("subtitle filter missing: %s", joined)
	}
	if !strings.Contains(joined, "-c:v libx264 -preset ultrafast") {
		t.Fatalf("video re-encode args wrong: %s", joined)
	}
	if !strings.Contains(joined, "-c:a copy out.mp4") {
		t.Fatalf("audio must be stream-copied: %s", joined)
	}
}

func TestWriteConcatListEscapesQuotes(t *testing.T) {
	dir := t.TempDir()
	seg := filepath.Join(dir, "it's a segment.mp4")
	listPath := filepath.Join(dir, "segments.txt")

	if err := WriteConcatList(listPath, []string{seg}); err != nil {
		t.Fatalf("WriteConcatList: %v", err)
	}
	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	want := fmt.Sprintf("file '%s'\n", strings.ReplaceAll(seg, "'", `'\''`))
	if string(data) != want {
		t.Fatalf("list = %q, want %q", data, want)
	}
}

func TestConcatArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client := newTestClient(t, exec)
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")

	err := client.Concat(context.Background(), []string{filepath.Join(dir, "a.mp4")}, listPath, "final.mp4")
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	joined := strings.Join(exec.calls[0], " ")
	if !strings.Contains(joined, "-f concat -safe 0 -i "+listPath) {
		t.Fatalf("concat input args wrong: %s", joined)
	}
	if !strings.Contains(joined, "-c copy final.mp4") {
		t.Fatalf("copy codec args wrong: %s", joined)
	}
}

func TestInvocationErrorIncludesStderr(t *testing.T) {
	exec := &fakeExecutor{stderr: "Unknown encoder 'h264_nvenc'", err: fmt.Errorf("exit status 1")}
	client := newTestClient(t, exec)
	err := client.RenderSegment(context.Background(), SegmentSpec{
		ImagePath: "i.png", AudioPath: "a.wav", OutputPath: "o.mp4", Width: 1920, Height: 1080,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Unknown encoder") {
		t.Fatalf("stderr not surfaced: %v", err)
	}
}
