// Package storetest opens throwaway SQLite databases for tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/example/shop-monolith/modules/store"
	"gorm.io/gorm"
)

// Open returns a migrated database in a temp directory, closed on cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := store.Open(store.Config{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
