// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"testing"

	"marketplace/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns an in-memory database with every persistent model migrated.
// The pool is pinned to one connection so all queries see the same memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// UintPtr returns a pointer to v.
func UintPtr(v uint) *uint { return &v }
