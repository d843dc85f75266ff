// cmd/migrate/main.go
package main

import (
	"cashback-optimizer/internal/config"
	"cashback-optimizer/internal/logger"
	"cashback-optimizer/internal/storage/postgres"
	"cashback-optimizer/internal/storage/sqlite"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := config.MustLoad()
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger.Setup(os.Stdout, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Применяем миграции", "db_driver", cfg.DBDriver)

	var err error
	switch cfg.DBDriver {
	case config.DriverSQLite:
		err = sqlite.RunMigrations(cfg.SQLitePath)
	default:
		err = postgres.Migrate(ctx, cfg.DBConn)
	}
	if err != nil {
		slog.Error("Миграции завершились с ошибкой", "error", err)
		os.Exit(1)
	}

	slog.Info("✅ Миграции применены")
}
