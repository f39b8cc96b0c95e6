package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vocabhero/internal/database"
)

// SQLBackend stores values in the kv_store table
type SQLBackend struct {
	db *database.DB
}

func NewSQLBackend(db *database.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// Get retrieves a value by key
func (b *SQLBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT store_value FROM kv_store WHERE store_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set updates or inserts a value
func (b *SQLBackend) Set(ctx context.Context, key, value string) error {
	return upsert(ctx, b.db, key, value)
}

// SetMany upserts all entries in one transaction
func (b *SQLBackend) SetMany(ctx context.Context, entries map[string]string) error {
	return b.db.WithTx(ctx, func(tx *database.Tx) error {
		for k, v := range entries {
			if err := upsert(ctx, tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM kv_store WHERE store_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT store_key FROM kv_store ORDER BY store_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}

func upsert(ctx context.Context, q database.DBTX, key, value string) error {
	if _, err := q.ExecContext(ctx, q.GetDialect().UpsertKVQuery(), key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
