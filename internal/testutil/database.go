// Package testutil provides shared fixtures for package tests: a migrated
// in-memory store and a small, hand-checked sales collection.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database, migrated and optionally
// seeded with records. It is closed automatically when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.SampleSales())
func SetupTestDB(t *testing.T, seed model.Collection) *TestDB {
	t.Helper()
	return setupDB(t, ":memory:", seed)
}

// SetupFileDB is SetupTestDB backed by a file in a temporary directory, for
// tests that need snapshots.
func SetupFileDB(t *testing.T, seed model.Collection) *TestDB {
	t.Helper()
	return setupDB(t, filepath.Join(t.TempDir(), "eshop.db"), seed)
}

func setupDB(t *testing.T, path string, seed model.Collection) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if len(seed) > 0 {
		if err := store.ReplaceSales(ctx, seed); err != nil {
			t.Fatalf("failed to seed sales: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustLoad returns everything currently stored or fails the test.
func (db *TestDB) MustLoad() model.Collection {
	db.t.Helper()
	records, err := db.Storage.LoadSales(context.Background())
	if err != nil {
		db.t.Fatalf("failed to load sales: %v", err)
	}
	return records
}
