package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"podforge/internal/media/ffmpeg"
	"podforge/internal/services/scriptapi"
)

// fakeScripts is an in-memory ScriptService. DownloadAudio writes the audio
// reference as file content so tests can verify what landed where.
type fakeScripts struct {
	mu           sync.Mutex
	lines        []scriptapi.Line
	meta         scriptapi.ScriptMeta
	metaErr      error
	downloadErr  map[string]error
	latency      func(audioRef string) time.Duration
	downloads    []string
	statusCalls  []string
}

func (f *fakeScripts) FetchLines(_ context.Context, _ string) ([]scriptapi.Line, error) {
	return f.lines, nil
}

func (f *fakeScripts) FetchScriptMeta(_ context.Context, _ string) (scriptapi.ScriptMeta, error) {
	if f.metaErr != nil {
		return scriptapi.ScriptMeta{}, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeScripts) DownloadAudio(_ context.Context, audioRef, destPath string) error {
	if f.latency != nil {
		time.Sleep(f.latency(audioRef))
	}
	f.mu.Lock()
	f.downloads = append(f.downloads, audioRef)
	err := f.downloadErr[audioRef]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if mkErr := os.MkdirAll(filepath.Dir(destPath), 0o755); mkErr != nil {
		return mkErr
	}
	return os.WriteFile(destPath, []byte(audioRef), 0o644)
}

func (f *fakeScripts) UpdateScriptStatus(_ context.Context, scriptID, videoURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, scriptID+" "+videoURL)
	return nil
}

func (f *fakeScripts) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.downloads)
}

// fakeMedia is an in-memory MediaEngine. Durations are keyed by audio file
// base name; operations create their output files so downstream stages see
// real paths. A non-nil gpuErr fails every hardware render attempt with it.
type fakeMedia struct {
	mu          sync.Mutex
	durations   map[string]time.Duration
	gpuErr      error
	renderCalls []ffmpeg.SegmentSpec
	mergeCalls  [][]ffmpeg.AudioInput
	concatCalls [][]string
	burnCalls   []string
}

func (m *fakeMedia) ProbeDuration(_ context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.durations[filepath.Base(path)]; ok {
		return d, nil
	}
	return time.Second, nil
}

func (m *fakeMedia) MergeAudio(_ context.Context, inputs []ffmpeg.AudioInput, outputPath string) error {
	m.mu.Lock()
	m.mergeCalls = append(m.mergeCalls, append([]ffmpeg.AudioInput(nil), inputs...))
	m.mu.Unlock()
	return os.WriteFile(outputPath, []byte("wav"), 0o644)
}

func (m *fakeMedia) RenderSegment(_ context.Context, spec ffmpeg.SegmentSpec) error {
	m.mu.Lock()
	m.renderCalls = append(m.renderCalls, spec)
	gpuErr := m.gpuErr
	m.mu.Unlock()
	if spec.UseGPU && gpuErr != nil {
		return gpuErr
	}
	return os.WriteFile(spec.OutputPath, []byte("mp4"), 0o644)
}

func (m *fakeMedia) Concat(_ context.Context, segmentPaths []string, listPath, outputPath string) error {
	m.mu.Lock()
	m.concatCalls = append(m.concatCalls, append([]string(nil), segmentPaths...))
	m.mu.Unlock()
	if err := ffmpeg.WriteConcatList(listPath, segmentPaths); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("final"), 0o644)
}

func (m *fakeMedia) BurnSubtitles(_ context.Context, _, subtitlePath, outputPath string, _ ffmpeg.SubtitleStyle) error {
	m.mu.Lock()
	m.burnCalls = append(m.burnCalls, subtitlePath)
	m.mu.Unlock()
	return os.WriteFile(outputPath, []byte("subtitled"), 0o644)
}

func (m *fakeMedia) renderedSpecs() []ffmpeg.SegmentSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ffmpeg.SegmentSpec(nil), m.renderCalls...)
}

// recordingObserver captures progress callbacks in arrival order.
type recordingObserver struct {
	mu     sync.Mutex
	stages []string
	points []float64
}

func (o *recordingObserver) StageStarted(_ string, stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func (o *recordingObserver) ProgressChanged(_ string, percent float64, _ string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.points = append(o.points, percent)
}

func (o *recordingObserver) snapshot() ([]string, []float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.stages...), append([]float64(nil), o.points...)
}

func scriptLines(n int) []scriptapi.Line {
	lines := make([]scriptapi.Line, 0, n)
	for i := 1; i <= n; i++ {
		lines = append(lines, scriptapi.Line{
			ID:        int64(i),
			Character: scriptapi.Character{ID: int64(i%2 + 1), Name: fmt.Sprintf("Speaker%d", i%2+1)},
			Content:   fmt.Sprintf("line %d", i),
			AudioRef:  fmt.Sprintf("/audio/%d.mp3", i),
		})
	}
	return lines
}
