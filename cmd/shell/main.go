package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gleejeyly/storefront/internal/app"
	"github.com/gleejeyly/storefront/internal/config"
	"github.com/gleejeyly/storefront/pkg/logger"
)

func main() {
	cfg, err := config.LoadShell()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("storefront-shell", cfg.LogLevel)
	log.Info("starting offline shell",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("origin", cfg.OriginURL),
	)

	shell, err := app.NewShell(cfg, log)
	if err != nil {
		log.Error("failed to initialize shell", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := shell.Run(ctx); err != nil {
		log.Error("shell error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("offline shell stopped")
}
