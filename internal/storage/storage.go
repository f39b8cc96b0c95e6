// Package storage provides the key-value persistence backends behind the store.
// Values are opaque JSON strings; keys are the fixed store keys.
package storage

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"vocabhero/internal/config"
	"vocabhero/internal/database"
)

// Backend is a string key-value store
type Backend interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes all entries atomically where the backend allows it
	SetMany(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// New opens the backend selected by cfg.Storage.Backend
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return NewMemoryBackend(), nil
	case "file":
		return NewFileBackend(cfg.Storage.Path)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     10,
			MinIdleConns: 2,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))
		return NewRedisBackend(client, cfg.Redis.Prefix), nil
	default:
		db, err := database.Open(cfg.Storage.Backend, cfg.Storage.Path, cfg.Storage.URL)
		if err != nil {
			return nil, err
		}
		applied, err := db.RunMigrations(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		for _, name := range applied {
			log.Info("migration completed", zap.String("file", name))
		}
		log.Info("database connection established", zap.String("type", cfg.Storage.Backend))
		return NewSQLBackend(db), nil
	}
}
