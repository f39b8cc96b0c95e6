package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "integration.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	applied, err := db.RunMigrations(ctx)
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected at least one migration to be applied")
	}

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", "kv_store").Scan(&name)
	if err != nil {
		t.Errorf("Table kv_store not found: %v", err)
	}

	// Second run is a no-op
	applied, err = db.RunMigrations(ctx)
	if err != nil {
		t.Fatalf("Failed to re-run migrations: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no migrations on second run, got %v", applied)
	}

	// Upsert twice, last value wins
	for _, v := range []string{"first", "second"} {
		if _, err := db.ExecContext(ctx, db.Dialect.UpsertKVQuery(), "vocabHero_colorScheme", v); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}
	var value string
	if err := db.QueryRowContext(ctx, "SELECT store_value FROM kv_store WHERE store_key = ?", "vocabHero_colorScheme").Scan(&value); err != nil {
		t.Fatalf("Failed to read value: %v", err)
	}
	if value != "second" {
		t.Errorf("value = %q, want %q", value, "second")
	}
}

// TestDatabaseTransactions tests commit and rollback through WithTx
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "transactions.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	err = db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, tx.GetDialect().UpsertKVQuery(), "committed", "yes")
		return err
	})
	if err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, tx.GetDialect().UpsertKVQuery(), "rolled_back", "yes"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want %v", err, boom)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}
