package ffmpeg

import (
	"context"
	"fmt"
	"strings"
)

// Encoder presets. NVENC uses its fastest preset; the CPU path mirrors that
// with libx264 ultrafast so a hardware fallback does not change throughput
// characteristics dramatically.
const (
	gpuCodec  = "h264_nvenc"
	gpuPreset = "p1"
	cpuCodec  = "libx264"
	cpuPreset = "ultrafast"
)

// SubtitleStyle controls how burned-in captions are styled.
type SubtitleStyle struct {
	FontName string
	FontSize int
	Outline  int
}

// ForceStyle renders the style as a libass force_style argument.
func (s SubtitleStyle) ForceStyle() string {
	font := s.FontName
	if font == "" {
		font = "Arial"
	}
	outline := s.Outline
	if outline <= 0 {
		outline = 2
	}
	return fmt.Sprintf(
		"FontName=%s,FontSize=%d,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,"+
			"BackColour=&H80000000,BorderStyle=4,Outline=%d,Shadow=0,Alignment=2,MarginV=30",
		font, s.FontSize, outline)
}

// SegmentSpec describes one still-image-plus-audio render.
type SegmentSpec struct {
	ImagePath    string
	AudioPath    string
	SubtitlePath string // optional; burned in when set
	OutputPath   string
	Width        int
	Height       int
	FPS          int
	VideoCodec   string // software encoder; empty means libx264
	AudioCodec   string // empty means aac
	AudioBitrate string
	Style        SubtitleStyle
	UseGPU       bool
}

// BuildSegmentFilter constructs the visual filter graph: the cover art scaled
// and padded to frame, a dimmed box behind a mirrored waveform, and the
// waveform overlaid at center.
func BuildSegmentFilter(spec SegmentSpec) string {
	spectrumWidth := spec.Width / 2
	spectrumHeight := 100
	boxX := (spec.Width - spectrumWidth) / 2
	boxY := (spec.Height - spectrumHeight*2) / 2

	var b strings.Builder
	fmt.Fprintf(&b,
		"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,"+
			"pad=%d:%d:(ow-iw)/2:(oh-ih)/2,"+
			"vignette=angle=PI/4,"+
			"drawbox=x=%d:y=%d:w=%d:h=%d:color=black@0.5:t=fill[bg];",
		spec.Width, spec.Height, spec.Width, spec.Height,
		boxX, boxY, spectrumWidth, spectrumHeight*2)
	fmt.Fprintf(&b,
		"[1:a]showwaves=s=%dx%d:mode=line:n=1:colors=white,format=rgba[waves];",
		spectrumWidth, spectrumHeight)
	b.WriteString("[waves]split[w1][w2];[w2]vflip[w2f];[w1][w2f]vstack[spectrum];")
	fmt.Fprintf(&b,
		"[bg][spectrum]overlay=(%d-w)/2:(%d-h)/2:eof_action=pass[outv]",
		spec.Width, spec.Height)
	if spec.SubtitlePath != "" {
		fmt.Fprintf(&b, ";[outv]subtitles=%s:force_style='%s'[outv]",
			EscapeFilterPath(spec.SubtitlePath), spec.Style.ForceStyle())
	}
	return b.String()
}

// EscapeFilterPath escapes a filesystem path for use inside an ffmpeg filter
// argument, where backslashes and colons are metacharacters.
func EscapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ReplaceAll(path, ":", "\\:")
}

// SegmentArgs builds the full ffmpeg argument list for one segment render.
func SegmentArgs(spec SegmentSpec) []string {
	fps := spec.FPS
	if fps <= 0 {
		fps = 24
	}
	bitrate := spec.AudioBitrate
	if bitrate == "" {
		bitrate = "192k"
	}
	audioCodec := spec.AudioCodec
	if audioCodec == "" {
		audioCodec = "aac"
	}
	args := []string{"-y"}
	if spec.UseGPU {
		args = append(args, "-hwaccel", "cuda")
	}
	args = append(args,
		"-loop", "1",
		"-i", spec.ImagePath,
		"-i", spec.AudioPath,
		"-filter_complex", BuildSegmentFilter(spec),
		"-map", "[outv]",
		"-map", "1:a",
	)
	if spec.UseGPU {
		args = append(args, "-c:v", gpuCodec, "-preset", gpuPreset)
	} else {
		videoCodec := spec.VideoCodec
		if videoCodec == "" {
			videoCodec = cpuCodec
		}
		args = append(args, "-c:v", videoCodec, "-preset", cpuPreset)
	}
	args = append(args,
		"-r", fmt.Sprintf("%d", fps),
		"-pix_fmt", "yuv420p",
		"-c:a", audioCodec,
		"-b:a", bitrate,
		"-shortest",
		spec.OutputPath,
	)
	return args
}

// RenderSegment encodes one segment. Hardware fallback policy lives with the
// caller: a GPU failure here surfaces as an error and the caller reissues the
// spec with UseGPU cleared.
func (c *Client) RenderSegment(ctx context.Context, spec SegmentSpec) error {
	return c.run(ctx, SegmentArgs(spec))
}
