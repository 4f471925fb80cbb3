package persistence

import (
	"path/filepath"
	"testing"

	"github.com/covidtrack/registry/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log:     config.LogConfig{Level: "warn"},
		Storage: config.StorageConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "registry.db")},
	}
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(sqliteConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("opens and migrates sqlite", func(t *testing.T) {
		db := newTestDatabase(t)

		assert.NoError(t, db.Ping())
		assert.True(t, db.DB.Migrator().HasTable("patients"))
	})

	t.Run("csv driver is not a database", func(t *testing.T) {
		cfg := sqliteConfig(t)
		cfg.Storage.Driver = config.DriverCSV

		_, err := NewDatabase(cfg, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a database")
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		db := newTestDatabase(t)
		assert.NoError(t, db.Migrate())
	})
}
