// internal/app/store.go
package app

import (
	"cashback-optimizer/internal/config"
	"cashback-optimizer/internal/storage"
	"cashback-optimizer/internal/storage/postgres"
	"cashback-optimizer/internal/storage/sqlite"
	"context"
	"fmt"
	"log/slog"
)

// OpenStore connects the backend chosen by DB_DRIVER and brings its schema up to date.
// The returned func releases the connection.
func OpenStore(ctx context.Context, cfg config.Config) (storage.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		slog.Info("Используем SQLite", "path", cfg.SQLitePath)
		return store, func() { _ = store.Close() }, nil

	case config.DriverPostgres:
		if err := postgres.Migrate(ctx, cfg.DBConn); err != nil {
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := postgres.Connect(ctx, cfg.DBConn, cfg.DBConnAttempts)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Подключились к Postgres")
		return postgres.NewStorage(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}
