package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"podforge/internal/queue"
)

// newTasksCommand lists queued tasks.
func newTasksCommand(cmdCtx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List render tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var statuses []queue.Status
			if statusFilter != "" {
				status, ok := queue.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
				statuses = append(statuses, status)
			}
			tasks, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				cmd.Println("No tasks.")
				return nil
			}

			rows := make([][]string, 0, len(tasks))
			for _, task := range tasks {
				rows = append(rows, []string{
					shortID(task.ID),
					task.ScriptID,
					string(task.Status),
					fmt.Sprintf("%.0f%%", task.Progress),
					string(task.Format),
					taskNote(task),
				})
			}
			cmd.Println(renderTable(
				[]string{"Task", "Script", "Status", "Progress", "Format", "Note"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "only show tasks with this status")
	return cmd
}

func shortID(id string) string {
	if !stdoutIsTerminal() {
		return id
	}
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		return id[:idx]
	}
	return id
}

func taskNote(task *queue.Task) string {
	if task.Status == queue.StatusFailed && task.ErrorMessage != "" {
		return task.ErrorMessage
	}
	return task.Message
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
