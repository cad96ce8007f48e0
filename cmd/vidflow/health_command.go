package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show daemon health and instance statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.health(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, health)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon running:  %v\n", health.Running)
			fmt.Fprintf(out, "Engine running:  %v\n", health.Engine.Running)
			fmt.Fprintf(out, "In flight:       %d\n", health.Engine.InFlight)
			if health.Engine.LastInstanceID != "" {
				fmt.Fprintf(out, "Last instance:   %s\n", health.Engine.LastInstanceID)
			}
			if health.Engine.LastError != "" {
				fmt.Fprintf(out, "Last error:      %s\n", health.Engine.LastError)
			}

			if len(health.Engine.InstanceStats) > 0 {
				counts := make(map[string]int, len(health.Engine.InstanceStats))
				statuses := make([]string, 0, len(health.Engine.InstanceStats))
				for s, n := range health.Engine.InstanceStats {
					counts[string(s)] = n
					statuses = append(statuses, string(s))
				}
				sort.Strings(statuses)
				fmt.Fprintln(out, "Instances:")
				for _, s := range statuses {
					fmt.Fprintf(out, "  %-10s %d\n", s, counts[s])
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON")
	return cmd
}
