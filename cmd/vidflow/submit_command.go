package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "submit <event.json>",
		Short: "Submit a blob-created event for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read event file: %w", err)
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			response, err := client.submitEvent(cmd.Context(), event)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, response)
			}

			out := cmd.OutOrStdout()
			if response.Skipped {
				fmt.Fprintln(out, "Event skipped: not a video upload.")
				return nil
			}
			fmt.Fprintf(out, "Started processing %s\n", response.VideoName)
			fmt.Fprintf(out, "Instance: %s\n", response.InstanceID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON")
	return cmd
}
