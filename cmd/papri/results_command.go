package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "results <task-id>",
		Short: "Fetch one page of results for a finished search task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			resultPage, err := client.FetchResults(cmd.Context(), args[0], page)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, pageDocument(resultPage))
			}

			out := cmd.OutOrStdout()
			if !resultPage.Ready() {
				fmt.Fprintf(out, "Task is still in progress (%s); results are not ready yet. Retry shortly, or run `papri status %s --watch`.\n", resultPage.TaskStatus.Label(), args[0])
				if resultPage.Message != "" {
					fmt.Fprintln(out, resultPage.Message)
				}
				return nil
			}
			if resultPage.Empty() {
				fmt.Fprintln(out, pageSummary(resultPage))
				return nil
			}
			fmt.Fprintln(out, renderTable(resultHeaders, resultRows(resultPage), resultAligns))
			fmt.Fprintln(out, pageSummary(resultPage))
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Result page to fetch")
	return cmd
}
