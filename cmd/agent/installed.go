package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/idleforest/idleforest/internal/agent"
)

var installedCmd = &cobra.Command{
	Use:   "installed",
	Short: "Handle an install or update event of the extension",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return withRuntime(cmd, true, func(ctx context.Context, rt *runtime) error {
			if err := rt.agent.OnInstalled(ctx, agent.Reason(reason)); err != nil {
				return err
			}
			pterm.Success.Printf("Handled %s event\n", reason)
			return nil
		})
	},
}

func init() {
	installedCmd.Flags().String("reason", string(agent.ReasonInstall), "Event reason: install or update")
}
