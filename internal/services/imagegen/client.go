package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
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

const stage = "image"

const systemPrompt = "You are an image generation assistant. Respond with the generated image only."

// Client talks to an OpenAI-compatible chat completions endpoint that returns
// generated images embedded in the assistant message. The configured base URL
// is the full endpoint (…/v1/chat/completions); no path is appended.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
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

// New constructs an image generation client. An empty base URL is a
// configuration error; callers that allow skipping generation must check the
// config before constructing the client.
func New(cfg config.ImageGen, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if endpoint == "" {
		return nil, services.Wrap(services.ErrConfiguration, stage, "new", "image generation base URL required", nil)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client := &Client{
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      strings.TrimSpace(cfg.Model),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message assistantMessage `json:"message"`
	} `json:"choices"`
}

// GenerateImage submits the prompt and extracts the image bytes from the
// response using the ordered extraction strategies.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 4096,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, "generate", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, "generate", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, stage, "generate", "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, stage, "generate", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, stage, "generate",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stage, "generate", "decode response", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, stage, "generate", "response contains no choices", nil)
	}

	image, strategy, err := ExtractImage(decoded.Choices[0].Message)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("extracted generated image",
		logging.String("strategy", strategy),
		logging.Int("bytes", len(image)))
	return image, nil
}
