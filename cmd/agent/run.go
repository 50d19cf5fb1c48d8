package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the SDK, the usage sync loop and the local message server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		return withRuntime(cmd, true, func(ctx context.Context, rt *runtime) error {
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return rt.agent.ServeMessages(ctx, rt.cfg.MessagesAddress, rt.registry)
			})
			g.Go(func() error {
				return rt.agent.Start(ctx)
			})
			return g.Wait()
		})
	},
}
