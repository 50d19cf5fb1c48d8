package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var optInCmd = &cobra.Command{
	Use:   "opt-in",
	Short: "Allow sharing of idle bandwidth",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
			if err := rt.sdk.OptIn(ctx); err != nil {
				return err
			}
			pterm.Success.Println("Bandwidth sharing enabled")
			return nil
		})
	},
}

var optOutCmd = &cobra.Command{
	Use:   "opt-out",
	Short: "Stop sharing idle bandwidth",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
			if err := rt.sdk.OptOut(ctx); err != nil {
				return err
			}
			pterm.Info.Println("Bandwidth sharing disabled")
			return nil
		})
	},
}
