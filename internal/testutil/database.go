// Package testutil provides test utilities for the picks project.
// It builds isolated, migrated catalogs with explicit identifiers so tests
// never share sequence state.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/storefront-picks/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.Catalog().
//		WithProduct(testutil.Product(1, "Kettle").InCategory("Kitchen")).
//		WithAccount("ada").
//		WithPurchase("ada", 1, 4).
//		MustBuild()
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, storage.DefaultOptions())
}

// SetupTestDBWithOptions creates a test database with custom supplier options.
func SetupTestDBWithOptions(t *testing.T, opts storage.Options) *TestDB {
	t.Helper()

	// Create in-memory SQLite storage
	store, err := storage.NewSQLiteStorageWithOptions(":memory:", opts)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// Catalog starts a builder that seeds this database.
func (db *TestDB) Catalog() *CatalogBuilder {
	return NewCatalogBuilder(db.t, db.Storage)
}
