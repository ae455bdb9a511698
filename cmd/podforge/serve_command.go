package main

import (
	"github.com/spf13/cobra"

	"podforge/internal/daemon"
	"podforge/internal/notifications"
	"podforge/internal/pipeline"
	"podforge/internal/queue"
	"podforge/internal/workflow"
)

// newServeCommand runs the daemon in the foreground: queue polling plus the
// HTTP API.
func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the task daemon and HTTP API in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if err := daemon.CheckDependencies(cfg); err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runner, err := buildRunner(cmd.Context(), cfg, store, logger, pipeline.NopObserver{})
			if err != nil {
				return err
			}
			notifier := notifications.New(cfg.Notifications, logger)
			manager := workflow.NewManager(cfg, store, runner, notifier, logger)

			return daemon.New(cfg, store, manager, logger).Run(cmd.Context())
		},
	}
}
