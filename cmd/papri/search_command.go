package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"papri/internal/tasks"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var imagePath string
	var videoURL string
	var filterPairs []string
	var watch bool

	cmd := &cobra.Command{
		Use:   "search [query text]",
		Short: "Submit a video search and optionally watch it to completion",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := tasks.SearchPayload{
				ImagePath: imagePath,
				VideoURL:  videoURL,
			}
			if len(args) == 1 {
				payload.QueryText = args[0]
			}
			filters, err := parseFilterPairs(filterPairs)
			if err != nil {
				return err
			}
			payload.Filters = filters

			controller, err := ctx.newController(nil)
			if err != nil {
				return err
			}
			defer controller.Close()

			task, err := controller.SubmitSearch(cmd.Context(), payload)
			if err != nil {
				return err
			}

			if watch {
				return ctx.watchTask(cmd, task, searchSummary(payload))
			}

			recordSubmission(ctx, cmd, task, searchSummary(payload))
			if ctx.jsonOutput() {
				return writeJSON(cmd, watchOutcome{
					TaskID: task.ID,
					Kind:   string(task.Kind),
					Status: string(task.Status),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Search task accepted: %s\n", task.ID)
			fmt.Fprintf(out, "Check progress with `papri status %s` or re-run with --watch.\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to a query image")
	cmd.Flags().StringVar(&videoURL, "url", "", "Absolute URL of a query video")
	cmd.Flags().StringArrayVar(&filterPairs, "filter", nil, "Search filter as key=value (repeatable)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll the task until it finishes and render results")
	return cmd
}

func parseFilterPairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", pair)
		}
		filters[key] = strings.TrimSpace(value)
	}
	return filters, nil
}

func searchSummary(payload tasks.SearchPayload) string {
	if text := strings.TrimSpace(payload.QueryText); text != "" {
		return text
	}
	if payload.VideoURL != "" {
		return "video: " + payload.VideoURL
	}
	if payload.ImagePath != "" {
		return "image: " + payload.ImagePath
	}
	return ""
}

// recordSubmission stores a fire-and-forget submission in history. The task
// is already accepted by the backend at this point, so history trouble is
// logged rather than surfaced as a command failure.
func recordSubmission(ctx *commandContext, cmd *cobra.Command, task tasks.Task, summary string) {
	store := ctx.optionalHistoryStore()
	if store == nil {
		return
	}
	defer store.Close()
	if _, err := store.Record(cmd.Context(), task, summary); err != nil {
		if logger, lerr := ctx.ensureLogger(); lerr == nil {
			logger.Warn("recording task in history failed", "task_id", task.ID, "error", err)
		}
	}
}
