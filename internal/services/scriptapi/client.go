package scriptapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"podforge/internal/config"
	"podforge/internal/logging"
	"podforge/internal/services"
)

const stage = "fetch"

// Character identifies a speaker in a script.
type Character struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

// Line is one dialogue line as delivered by the script backend.
type Line struct {
	ID        int64     `json:"id"`
	Character Character `json:"character"`
	Content   string    `json:"content"`
	AudioRef  string    `json:"audioPath"`
	DelayMS   int       `json:"delayDurationMs"`
}

// Delay returns the pause that follows this line.
func (l Line) Delay() time.Duration {
	if l.DelayMS <= 0 {
		return 0
	}
	return time.Duration(l.DelayMS) * time.Millisecond
}

// ScriptMeta carries the script-level fields used for cover art prompts.
type ScriptMeta struct {
	Title       string
	LessonTitle string
	TopicTitle  string
	TopicType   string
}

// Client talks to the script backend over HTTP.
type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	downloadTimeout time.Duration
	retries         int
	retryBase       time.Duration
	logger          *slog.Logger
	sleep           func(context.Context, time.Duration) error
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSleep replaces the backoff sleeper (tests use this to avoid real waits).
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New constructs a script backend client from configuration.
func New(cfg config.ScriptAPI, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, stage, "new", "script API base URL required", nil)
	}
	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	downloadTimeout := time.Duration(cfg.DownloadTimeout) * time.Second
	if downloadTimeout <= 0 {
		downloadTimeout = 120 * time.Second
	}
	retries := cfg.DownloadRetries
	if retries <= 0 {
		retries = 3
	}
	retryBase := time.Duration(cfg.RetryBaseSeconds) * time.Second
	if retryBase <= 0 {
		retryBase = 2 * time.Second
	}
	client := &Client{
		baseURL:         baseURL,
		apiKey:          strings.TrimSpace(cfg.APIKey),
		httpClient:      &http.Client{Timeout: requestTimeout},
		downloadTimeout: downloadTimeout,
		retries:         retries,
		retryBase:       retryBase,
		logger:          logging.NewNop(),
		sleep:           sleepContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FetchLines retrieves the ordered dialogue lines of a script.
func (c *Client) FetchLines(ctx context.Context, scriptID string) ([]Line, error) {
	endpoint := fmt.Sprintf("%s/manager/lesson-manager/scripts/%s/all-lines", c.baseURL, scriptID)
	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Data []Line `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, "lines", "decode script lines", err)
	}
	return envelope.Data, nil
}

// FetchScriptMeta retrieves the script title, lesson, and topic information.
// Missing topic data falls back to the long-form default.
func (c *Client) FetchScriptMeta(ctx context.Context, scriptID string) (ScriptMeta, error) {
	endpoint := fmt.Sprintf("%s/manager/lesson-manager/scripts/%s", c.baseURL, scriptID)
	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return ScriptMeta{}, err
	}
	var envelope struct {
		Data struct {
			Title  string `json:"title"`
			Lesson struct {
				Title string `json:"title"`
			} `json:"lesson"`
			Topic struct {
				Title     string `json:"title"`
				TopicType string `json:"topicType"`
			} `json:"topic"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ScriptMeta{}, services.Wrap(services.ErrExternalTool, stage, "meta", "decode script metadata", err)
	}
	meta := ScriptMeta{
		Title:       envelope.Data.Title,
		LessonTitle: envelope.Data.Lesson.Title,
		TopicTitle:  envelope.Data.Topic.Title,
		TopicType:   strings.ToUpper(strings.TrimSpace(envelope.Data.Topic.TopicType)),
	}
	if meta.TopicType == "" {
		meta.TopicType = "LONG"
	}
	return meta, nil
}

// UpdateScriptStatus reports the finished video back to the script backend.
// Callers treat failures as best-effort and only log them.
func (c *Client) UpdateScriptStatus(ctx context.Context, scriptID, videoURL string) error {
	endpoint := fmt.Sprintf("%s/manager/lesson-manager/scripts/%s", c.baseURL, scriptID)
	payload, err := json.Marshal(map[string]string{
		"videoUrl": videoURL,
		"status":   "WAIT_FOR_REVIEW",
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "export", "update status", "encode payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "export", "update status", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "export", "update status", "request failed", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrTransient, "export", "update status",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Apikey", c.apiKey)
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, "get", "build request", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, stage, "get", endpoint, err)
		}
		return nil, services.Wrap(services.ErrTransient, stage, "get", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, stage, "get", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return nil, services.Wrap(marker, stage, "get",
			fmt.Sprintf("%s returned status %d", endpoint, resp.StatusCode), nil)
	}
	return body, nil
}
