package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"podforge/internal/logging"
)

// Client wraps ffmpeg/ffprobe CLI interactions behind one fixed pair of
// binaries and an injectable executor.
type Client struct {
	ffmpeg  string
	ffprobe string
	exec    Executor
	logger  *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger for invocation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs an ffmpeg client.
func New(ffmpegBinary, ffprobeBinary string, opts ...Option) (*Client, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffmpegBinary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	if ffprobeBinary == "" {
		return nil, errors.New("ffprobe binary required")
	}
	client := &Client{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ProbeDuration returns the container duration of a media file.
func (c *Client) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	stdout, stderr, err := c.exec.Run(ctx, c.ffprobe, args)
	if err != nil {
		return 0, wrapInvocation(c.ffprobe, stderr, err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(stdout), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Capabilities describes hardware encoding support detected at startup.
type Capabilities struct {
	NVENC bool
}

// DetectCapabilities probes the ffmpeg build for hardware encoders. It is
// invoked once at process start and the result passed into the renderer as
// configuration; nothing caches it at package level.
func (c *Client) DetectCapabilities(ctx context.Context) Capabilities {
	stdout, _, err := c.exec.Run(ctx, c.ffmpeg, []string{"-encoders"})
	if err != nil {
		return Capabilities{}
	}
	caps := Capabilities{NVENC: strings.Contains(stdout, "h264_nvenc")}
	if caps.NVENC {
		c.logger.Info("hardware encoding available", logging.String("encoder", "h264_nvenc"))
	}
	return caps
}

func (c *Client) run(ctx context.Context, args []string) error {
	_, stderr, err := c.exec.Run(ctx, c.ffmpeg, args)
	return wrapInvocation(c.ffmpeg, stderr, err)
}
