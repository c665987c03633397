package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"papri/internal/api"
	"papri/internal/tasks"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var projectID string
	var watch bool

	cmd := &cobra.Command{
		Use:   "edit <prompt>",
		Short: "Submit a natural-language edit against a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := tasks.EditPayload{
				ProjectID: projectID,
				Prompt:    args[0],
			}

			controller, err := ctx.newController(nil)
			if err != nil {
				return err
			}
			defer controller.Close()

			task, err := controller.SubmitEdit(cmd.Context(), payload)
			if err != nil {
				return err
			}

			summary := truncate(payload.Prompt, 80)
			if watch {
				return ctx.watchTask(cmd, task, summary)
			}

			recordSubmission(ctx, cmd, task, summary)
			if ctx.jsonOutput() {
				return writeJSON(cmd, watchOutcome{
					TaskID: task.ID,
					Kind:   string(task.Kind),
					Status: string(task.Status),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Edit task accepted: %s\n", task.ID)
			fmt.Fprintf(out, "Check progress with `papri status %s --kind edit` or re-run with --watch.\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "P", "", "Project id the edit applies to")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll the task until it finishes")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage video edit projects",
	}
	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	return projectCmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var name string
	var sourceID string
	var uploadPath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project from a search result or an uploaded file",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := api.ProjectSpec{
				Name:       strings.TrimSpace(name),
				SourceID:   strings.TrimSpace(sourceID),
				UploadPath: strings.TrimSpace(uploadPath),
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			project, err := client.CreateProject(cmd.Context(), spec)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, project)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %q created with id %s\n", project.Name, project.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name")
	cmd.Flags().StringVar(&sourceID, "source-id", "", "Id of a search result video to edit")
	cmd.Flags().StringVar(&uploadPath, "upload", "", "Path to a local video file to upload")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
