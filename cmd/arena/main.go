package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"

	"github.com/ShangTsung3/battle-city-pro/internal/app"
	"github.com/ShangTsung3/battle-city-pro/internal/config"
	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
)

func main() {
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{ReportTimestamp: true, Prefix: "arena"})
	if err := config.LoadDotEnv(); err != nil {
		logger.Fatal("failed to load environment", "err", err)
	}
	cfg := config.FromEnv(telemetry.WrapLogger(logger))
	if level, err := charmlog.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunArena(ctx, cfg, logger); err != nil {
		logger.Fatal("arena failed", "err", err)
	}
}
