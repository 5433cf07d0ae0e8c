package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/tracker-saas/internal/app/sweeper"
	"github.com/magabrotheeeer/tracker-saas/internal/config"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env, cfg.LogFile)

	logger.Info("starting expiration sweeper", slog.String("env", cfg.Env), slog.Bool("run_once", cfg.RunOnce))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sweeper.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize sweeper app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("sweeper app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("sweeper app stopped gracefully")
}
