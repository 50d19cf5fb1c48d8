// Package main содержит точку входа обработчика реферальных начислений.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/idleforest/idleforest/internal/app/referralworker"
	"github.com/idleforest/idleforest/internal/config"
	"github.com/idleforest/idleforest/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting referral-worker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := referralworker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize referral worker", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("referral worker stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("referral worker stopped gracefully")
}
