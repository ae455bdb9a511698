package main

import (
	"github.com/spf13/cobra"

	"podforge/internal/logging"
	"podforge/internal/notifications"
)

func newTestNotifyCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the configured ntfy topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			service := notifications.New(cfg.Notifications, logging.NewNop())
			if err := service.Test(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Notification sent.")
			return nil
		},
	}
}
