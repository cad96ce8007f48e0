package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var includeHistory bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <instance-id>",
		Short: "Show the status of a processing instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			view, err := client.instanceStatus(cmd.Context(), args[0], includeHistory)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Instance:  %s\n", view.InstanceID)
			fmt.Fprintf(out, "Status:    %s\n", colorizeStatus(view.RuntimeStatus, shouldColorize(out)))
			fmt.Fprintf(out, "Created:   %s\n", view.CreatedTime)
			fmt.Fprintf(out, "Updated:   %s\n", view.LastUpdatedTime)
			if view.ProcessingDuration != "" {
				fmt.Fprintf(out, "Duration:  %s\n", view.ProcessingDuration)
			}
			if view.CustomStatus != "" {
				fmt.Fprintf(out, "Progress:  %s\n", view.CustomStatus)
			}
			if len(view.Errors) > 0 {
				fmt.Fprintln(out, "Errors:")
				for _, e := range view.Errors {
					fmt.Fprintf(out, "  [%s] %s\n", e.Step, e.Message)
				}
			}
			if includeHistory && len(view.ExecutionHistory) > 0 {
				rows := make([][]string, 0, len(view.ExecutionHistory))
				for _, event := range view.ExecutionHistory {
					rows = append(rows, []string{event.Name, event.Status, event.Timestamp})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Stage", "Status", "Timestamp"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeHistory, "history", false, "Include per-stage execution history")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON")
	return cmd
}
