package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.AppBaseURL = strings.TrimRight(strings.TrimSpace(c.Paths.AppBaseURL), "/")
	c.ScriptAPI.BaseURL = strings.TrimRight(strings.TrimSpace(c.ScriptAPI.BaseURL), "/")
	c.ImageGen.BaseURL = strings.TrimSpace(c.ImageGen.BaseURL)

	if c.ScriptAPI.DownloadRetries <= 0 {
		c.ScriptAPI.DownloadRetries = defaultDownloadRetries
	}
	if c.ScriptAPI.RetryBaseSeconds <= 0 {
		c.ScriptAPI.RetryBaseSeconds = defaultRetryBaseSeconds
	}
	if c.Pipeline.DownloadWorkers <= 0 {
		c.Pipeline.DownloadWorkers = defaultDownloadWorkers
	}
	if c.Pipeline.RenderWorkers <= 0 {
		c.Pipeline.RenderWorkers = defaultRenderWorkers
	}
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = defaultBatchSize
	}
	c.Pipeline.SubtitleBurn = strings.ToLower(strings.TrimSpace(c.Pipeline.SubtitleBurn))
	if c.Pipeline.SubtitleBurn == "" {
		c.Pipeline.SubtitleBurn = SubtitleBurnSegment
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = defaultFPS
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	return nil
}
