package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	AppBaseURL string `toml:"app_base_url"`
}

// ScriptAPI contains configuration for the script/line backend.
type ScriptAPI struct {
	BaseURL          string `toml:"base_url"`
	APIKey           string `toml:"api_key"`
	RequestTimeout   int    `toml:"request_timeout"`
	DownloadTimeout  int    `toml:"download_timeout"`
	DownloadRetries  int    `toml:"download_retries"`
	RetryBaseSeconds int    `toml:"retry_base_seconds"`
}

// ImageGen contains configuration for cover image generation. BaseURL is the
// full chat-completions endpoint URL, not a prefix.
type ImageGen struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Video contains fixed encoding parameters shared by every segment in a run.
// All segments must use one configuration so the concatenator can stream-copy.
type Video struct {
	FPS                    int    `toml:"fps"`
	Codec                  string `toml:"codec"`
	AudioCodec             string `toml:"audio_codec"`
	AudioBitrate           string `toml:"audio_bitrate"`
	SubtitleFont           string `toml:"subtitle_font"`
	SubtitleOutline        int    `toml:"subtitle_outline"`
	FontSizeHorizontal     int    `toml:"font_size_horizontal"`
	FontSizeVertical       int    `toml:"font_size_vertical"`
	FFmpegBinary           string `toml:"ffmpeg_binary"`
	FFprobeBinary          string `toml:"ffprobe_binary"`
	HardwareAccelerationOK bool   `toml:"-"`
}

// Subtitle burn placement values for Pipeline.SubtitleBurn.
const (
	// SubtitleBurnSegment renders captions into each batch segment, keeping
	// the final concatenation a stream copy.
	SubtitleBurnSegment = "segment"
	// SubtitleBurnFinal re-encodes the concatenated video once at export.
	SubtitleBurnFinal = "final"
)

// Pipeline contains worker pool sizes and batching for the assembly pipeline.
type Pipeline struct {
	DownloadWorkers int    `toml:"download_workers"`
	RenderWorkers   int    `toml:"render_workers"`
	BatchSize       int    `toml:"batch_size"`
	SubtitleBurn    string `toml:"subtitle_burn"`
	KeepScratch     bool   `toml:"keep_scratch"`
}

// Workflow contains daemon timing configuration.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Podforge.
type Config struct {
	Paths         Paths         `toml:"paths"`
	ScriptAPI     ScriptAPI     `toml:"script_api"`
	ImageGen      ImageGen      `toml:"image_gen"`
	Video         Video         `toml:"video"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("podforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the staging, output, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the configured ffmpeg executable name or path.
func (c *Config) FFmpegBinary() string {
	if b := strings.TrimSpace(c.Video.FFmpegBinary); b != "" {
		return b
	}
	return "ffmpeg"
}

// FFprobeBinary returns the configured ffprobe executable name or path.
func (c *Config) FFprobeBinary() string {
	if b := strings.TrimSpace(c.Video.FFprobeBinary); b != "" {
		return b
	}
	return "ffprobe"
}

// DownloadTimeout returns the per-attempt audio download timeout.
func (c *Config) DownloadTimeout() time.Duration {
	if c.ScriptAPI.DownloadTimeout <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.ScriptAPI.DownloadTimeout) * time.Second
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path, refusing to overwrite.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
