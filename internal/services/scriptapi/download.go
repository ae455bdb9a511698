package scriptapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podforge/internal/logging"
	"podforge/internal/services"
)

// DownloadAudio fetches one line's audio file to destPath. Transient failures
// (connection errors, timeouts, bad HTTP status, truncated bodies) are retried
// with linear backoff; after the final attempt the last error is returned.
func (c *Client) DownloadAudio(ctx context.Context, audioRef, destPath string) error {
	audioRef = strings.TrimSpace(audioRef)
	if audioRef == "" {
		return services.Wrap(services.ErrValidation, "audio", "download", "empty audio reference", nil)
	}
	endpoint := fmt.Sprintf("%s/manager/media/download-by-path?filePath=%s&view=false",
		c.baseURL, url.QueryEscape(audioRef))

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt+1) * c.retryBase
			c.logger.Warn("retrying audio download",
				logging.String("audio_ref", audioRef),
				logging.Int("attempt", attempt+1),
				logging.Duration("backoff", backoff),
				logging.Error(lastErr))
			if err := c.sleep(ctx, backoff); err != nil {
				return err
			}
		}
		lastErr = c.downloadOnce(ctx, endpoint, destPath)
		if lastErr == nil {
			return nil
		}
		if !services.IsTransient(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) downloadOnce(ctx context.Context, endpoint, destPath string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "download", "build request", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return services.Wrap(services.ErrTimeout, "audio", "download", endpoint, err)
		}
		return services.Wrap(services.ErrTransient, "audio", "download", "connection failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransient, "audio", "download",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "download", "create cache dir", err)
	}
	tmpPath := destPath + ".partial"
	file, err := os.Create(tmpPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "download", "create file", err)
	}

	written, copyErr := io.Copy(file, resp.Body)
	if copyErr == nil {
		copyErr = file.Sync()
	}
	closeErr := file.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		if attemptCtx.Err() == context.DeadlineExceeded {
			return services.Wrap(services.ErrTimeout, "audio", "download", "body read timed out", copyErr)
		}
		return services.Wrap(services.ErrTransient, "audio", "download", "truncated body", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrExternalTool, "audio", "download", "close file", closeErr)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrTransient, "audio", "download",
			fmt.Sprintf("truncated body: got %d of %d bytes", written, resp.ContentLength), nil)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrExternalTool, "audio", "download", "finalize file", err)
	}
	return nil
}
