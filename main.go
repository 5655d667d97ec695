package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"knowledgehub/internal/app"
	"knowledgehub/internal/config"
	"knowledgehub/internal/logger"
)

func main() {
	handler := logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.Close(context.Background())

	application, err := app.New(cfg, deps)
	if err != nil {
		slog.Error("failed to wire application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
