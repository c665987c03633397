package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication utilities",
	}
	authCmd.AddCommand(newAuthStatusCommand(ctx))
	return authCmd
}

func newAuthStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.AuthStatus(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			if !status.IsAuthenticated {
				fmt.Fprintln(out, "Not signed in; searches run against the demo quota.")
				return nil
			}
			if status.User != nil {
				fmt.Fprintf(out, "Signed in as %s\n", status.User.Username)
			}
			if status.Profile != nil {
				fmt.Fprintf(out, "Plan: %s\n", status.Profile.SubscriptionPlan)
				if status.Profile.RemainingTrialSearches > 0 {
					fmt.Fprintf(out, "Trial searches remaining: %d\n", status.Profile.RemainingTrialSearches)
				}
			}
			return nil
		},
	}
}
