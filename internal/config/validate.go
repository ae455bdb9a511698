package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks semantic constraints that normalization cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		problems = append(problems, "paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, "paths.output_dir must be set")
	}
	if strings.TrimSpace(c.ScriptAPI.BaseURL) == "" {
		problems = append(problems, "script_api.base_url must be set")
	}
	switch strings.ToLower(strings.TrimSpace(c.Pipeline.SubtitleBurn)) {
	case "", SubtitleBurnSegment, SubtitleBurnFinal:
	default:
		problems = append(problems, fmt.Sprintf("pipeline.subtitle_burn %q is not one of segment, final", c.Pipeline.SubtitleBurn))
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
