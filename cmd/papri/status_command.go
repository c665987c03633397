package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"papri/internal/tasks"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var watch bool

	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the current status of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := tasks.ParseKind(kindFlag)
			if !ok {
				return fmt.Errorf("unknown task kind %q (expected search or edit)", kindFlag)
			}

			task := tasks.Task{ID: args[0], Kind: kind}

			if watch {
				return ctx.watchTask(cmd, task, "")
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			update, err := client.TaskStatus(cmd.Context(), task)
			if err != nil {
				return err
			}
			task.Status = update.Status
			task.Message = update.Message
			task.ResultURL = update.ResultURL

			if ctx.jsonOutput() {
				return writeJSON(cmd, watchOutcome{
					TaskID:    task.ID,
					Kind:      string(task.Kind),
					Status:    string(task.Status),
					Message:   task.Message,
					ResultURL: task.ResultURL,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderStatusLine(task, shouldColorize(out)))
			if task.Status.Succeeded() && kind == tasks.KindSearch {
				fmt.Fprintf(out, "Fetch results with `papri results %s`.\n", task.ID)
			}
			if task.ResultURL != "" {
				fmt.Fprintf(out, "Output: %s\n", task.ResultURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "search", "Task kind: search or edit")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll the task until it finishes")
	return cmd
}
