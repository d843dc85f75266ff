// cmd/api/main.go
package main

import (
	"cashback-optimizer/internal/app"
	"cashback-optimizer/internal/auth"
	"cashback-optimizer/internal/bot"
	"cashback-optimizer/internal/config"
	"cashback-optimizer/internal/handler"
	"cashback-optimizer/internal/logger"
	"cashback-optimizer/internal/metrics"
	"cashback-optimizer/internal/middleware"
	"cashback-optimizer/internal/service"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.MustLoad()
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger.Setup(os.Stdout, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("Не удалось подключиться к БД", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc := service.New(store, metrics.New(reg))
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	deps := handler.RouterDeps{
		Service:        svc,
		Tokens:         auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn),
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
		Gatherer:       reg,
	}

	// Telegram webhook
	if cfg.BotToken != "" {
		if cfg.WebhookBaseURL == "" {
			slog.Warn("TELEGRAM_BOT_TOKEN задан, но WEBHOOK_BASE_URL пуст: webhook не поднимаем")
		} else {
			api, err := tgbotapi.NewBotAPI(cfg.BotToken)
			if err != nil {
				slog.Error("Не удалось инициализировать Telegram бота", "error", err)
				os.Exit(1)
			}
			if err := bot.SetWebhook(api, strings.TrimRight(cfg.WebhookBaseURL, "/")+"/telegram"); err != nil {
				slog.Error("Не удалось установить webhook", "error", err)
				os.Exit(1)
			}
			deps.Telegram = bot.New(svc).Webhook(api)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Cleanup(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("🚀 Сервер запущен", "addr", cfg.ServerPort, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Сервер завершил работу с ошибкой", "error", err)
		os.Exit(1)
	}
	slog.Info("Сервер остановлен")
}
