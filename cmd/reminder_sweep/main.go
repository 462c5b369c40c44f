// Command reminder_sweep runs a single reminder sweep and exits. It is meant
// for cron deployments where the in-process sweeper is disabled.
package main

import (
	"context"
	"log/slog"
	"os"

	"gigmarket/internal/app"
	"gigmarket/internal/config"
	"gigmarket/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.AppEnv)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("init app", "error", err)
		os.Exit(1)
	}

	res, ran, err := a.Sweeper.SweepOnce(ctx)
	if cerr := a.Close(); cerr != nil {
		logger.Warn("close app", "error", cerr)
	}
	if err != nil {
		logger.Error("reminder sweep failed", "error", err)
		os.Exit(1)
	}
	if !ran {
		logger.Info("reminder sweep skipped, another instance holds the lock")
		return
	}
	logger.Info("reminder sweep completed",
		"due", res.Due,
		"sent", res.Sent,
		"failed", res.Failed,
		"suppressed", res.Suppressed,
	)
}
