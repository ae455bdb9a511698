package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	root := &cobra.Command{
		Use:           "podforge",
		Short:         "Assemble dialogue scripts into rendered videos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file")

	cmdCtx := newCommandContext(&configFlag)
	root.AddCommand(
		newRenderCommand(cmdCtx),
		newServeCommand(cmdCtx),
		newTasksCommand(cmdCtx),
		newConfigCommand(cmdCtx),
		newTestNotifyCommand(cmdCtx),
	)
	return root
}
