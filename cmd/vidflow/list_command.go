package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent processing instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			views, err := client.listInstances(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No instances found.")
				return nil
			}

			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{
					view.InstanceID,
					videoNameFromInfo(view.VideoInfo),
					view.RuntimeStatus,
					view.CreatedTime,
					view.ProcessingDuration,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Instance", "Video", "Status", "Created", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of instances to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON")
	return cmd
}

func videoNameFromInfo(info json.RawMessage) string {
	var parsed struct {
		BlobName string `json:"blob_name"`
	}
	if err := json.Unmarshal(info, &parsed); err != nil {
		return ""
	}
	return parsed.BlobName
}
