package database

import (
	"path/filepath"
	"testing"

	"finance-tracker/internal/config"
	"finance-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	db, err := Init(config.DatabaseConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Row().Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, db.Raw("PRAGMA busy_timeout").Row().Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestAutoMigrateIsIdempotent(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, AutoMigrate(db))

	for _, m := range []interface{}{&models.Account{}, &models.Transaction{}, &models.AuditLog{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
}
