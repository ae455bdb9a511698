// Package notifications delivers ntfy push notifications for terminal task
// transitions. An empty topic disables delivery entirely.
package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"podforge/internal/config"
	"podforge/internal/logging"
	"podforge/internal/queue"
)

// Service publishes task lifecycle notifications to an ntfy topic URL.
type Service struct {
	topicURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes service construction.
type Option func(*Service)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Service) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// New constructs the notification service. A blank topic yields a service
// whose publishes are silent no-ops.
func New(cfg config.Notifications, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	service := &Service{
		topicURL:   strings.TrimSpace(cfg.NtfyTopic),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Enabled reports whether a topic is configured.
func (s *Service) Enabled() bool { return s.topicURL != "" }

// TaskCompleted announces a finished render.
func (s *Service) TaskCompleted(ctx context.Context, task *queue.Task) {
	s.publish(ctx, "Video ready",
		fmt.Sprintf("Script %s rendered to %s", task.ScriptID, task.VideoPath), "tada")
}

// TaskFailed announces a failed render.
func (s *Service) TaskFailed(ctx context.Context, task *queue.Task) {
	s.publish(ctx, "Render failed",
		fmt.Sprintf("Script %s: %s", task.ScriptID, task.ErrorMessage), "rotating_light")
}

// Test sends a connectivity check message.
func (s *Service) Test(ctx context.Context) error {
	if !s.Enabled() {
		return fmt.Errorf("no ntfy topic configured")
	}
	return s.send(ctx, "Podforge test", "Notification delivery works", "white_check_mark")
}

func (s *Service) publish(ctx context.Context, title, message, tags string) {
	if !s.Enabled() {
		return
	}
	if err := s.send(ctx, title, message, tags); err != nil {
		s.logger.Warn("notification delivery failed", logging.Error(err))
	}
}

func (s *Service) send(ctx context.Context, title, message, tags string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.topicURL, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}
	req.Header.Set("Title", title)
	if tags != "" {
		req.Header.Set("Tags", tags)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}
	return nil
}
