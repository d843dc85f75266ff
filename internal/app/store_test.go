package app

import (
	"context"
	"path/filepath"
	"testing"

	"cashback-optimizer/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_SQLite(t *testing.T) {
	cfg := config.Config{DBDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")}

	store, closeStore, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := OpenStore(context.Background(), config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}
