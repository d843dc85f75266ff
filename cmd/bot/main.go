// cmd/bot/main.go
package main

import (
	"cashback-optimizer/internal/app"
	"cashback-optimizer/internal/bot"
	"cashback-optimizer/internal/config"
	"cashback-optimizer/internal/logger"
	"cashback-optimizer/internal/metrics"
	"cashback-optimizer/internal/service"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.MustLoad()
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger.Setup(os.Stdout, level)

	if cfg.BotToken == "" {
		slog.Error("TELEGRAM_BOT_TOKEN not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		slog.Error("Failed to init bot", "error", err)
		os.Exit(1)
	}
	// long polling не работает, пока висит webhook
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		slog.Warn("Failed to drop webhook", "error", err)
	}

	b := bot.New(service.New(store, metrics.Nop()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx, api)
	})
	if err := g.Wait(); err != nil {
		slog.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Bot stopped")
}
