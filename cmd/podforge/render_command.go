package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"podforge/internal/daemon"
	"podforge/internal/queue"
)

// newRenderCommand runs one script through the pipeline in the foreground,
// without the daemon or the queue database.
func newRenderCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		format        string
		skipImage     bool
		maxLines      int
		burnSubtitles bool
		keepScratch   bool
	)

	cmd := &cobra.Command{
		Use:   "render <script-id>",
		Short: "Render one script to a video in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if keepScratch {
				cfg.Pipeline.KeepScratch = true
			}
			if err := daemon.CheckDependencies(cfg); err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			store := queue.NewMemoryStore()
			runner, err := buildRunner(cmd.Context(), cfg, store, logger, cliProgress{out: cmd})
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			task := &queue.Task{
				ID:                  uuid.NewString(),
				ScriptID:            args[0],
				Status:              queue.StatusProcessing,
				Format:              queue.ParseFormat(format),
				SkipImageGeneration: skipImage,
				MaxLines:            maxLines,
				BurnSubtitles:       burnSubtitles,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			if err := store.Create(cmd.Context(), task); err != nil {
				return err
			}
			if err := runner.Run(cmd.Context(), task); err != nil {
				return err
			}

			cmd.Printf("Video:     %s\n", task.VideoPath)
			cmd.Printf("Subtitles: %s\n", task.SubtitlePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "horizontal", "output format (horizontal or vertical)")
	cmd.Flags().BoolVar(&skipImage, "skip-image", false, "use the placeholder cover instead of generating one")
	cmd.Flags().IntVar(&maxLines, "max-lines", 0, "render at most this many lines (0 = all)")
	cmd.Flags().BoolVar(&burnSubtitles, "burn-subtitles", false, "burn captions into the picture")
	cmd.Flags().BoolVar(&keepScratch, "keep-scratch", false, "keep the scratch directory after the run")
	return cmd
}

// cliProgress prints stage progress to the command's output stream.
type cliProgress struct {
	out interface{ Printf(format string, args ...any) }
}

func (p cliProgress) StageStarted(_ string, stage string) {
	p.out.Printf("==> %s\n", stage)
}

func (p cliProgress) ProgressChanged(_ string, percent float64, message string) {
	p.out.Printf("    %5.1f%% %s\n", percent, message)
}
