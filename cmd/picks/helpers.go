package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/storefront-picks/internal/cache"
	"github.com/Veraticus/storefront-picks/internal/common"
	"github.com/Veraticus/storefront-picks/internal/config"
	"github.com/Veraticus/storefront-picks/internal/engine"
	"github.com/Veraticus/storefront-picks/internal/storage"
)

// Cache backends.
const (
	cacheNone   = "none"
	cacheMemory = "memory"
	cacheRedis  = "redis"
)

// openStorage opens the configured database without migrating it.
func openStorage() (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	opts := storage.Options{
		SupplierLimit:     viper.GetInt("suppliers.limit"),
		LowStockThreshold: viper.GetInt("suppliers.low_stock_threshold"),
	}

	store, err := storage.NewSQLiteStorageWithOptions(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := openStorage()
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// closeStore closes the store, logging any failure.
func closeStore(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// openCache returns the configured supplier cache, or nil when caching is off.
func openCache(ctx context.Context) (cache.Cache, error) {
	backend := viper.GetString("cache.backend")
	switch backend {
	case cacheNone, "":
		return nil, nil
	case cacheMemory:
		return cache.NewMemoryCache(), nil
	case cacheRedis:
		addr := viper.GetString("cache.redis.addr")
		if addr == "" {
			return nil, fmt.Errorf("%w: cache.redis.addr", common.ErrMissingConfig)
		}
		c, err := cache.NewRedisCache(ctx, addr, viper.GetInt("cache.redis.db"))
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", common.ErrInvalidConfig, backend)
	}
}

// engineConfig builds the recommender configuration from viper.
func engineConfig(supplierCache cache.Cache) engine.Config {
	cfg := engine.DefaultConfig()
	cfg.SupplierRetry.MaxAttempts = viper.GetInt("suppliers.retry.max_attempts")
	cfg.SupplierRetry.InitialDelay = viper.GetDuration("suppliers.retry.initial_delay")
	cfg.Breaker.MaxFailures = viper.GetUint32("suppliers.breaker.max_failures")
	cfg.Breaker.OpenTimeout = viper.GetDuration("suppliers.breaker.open_timeout")

	if supplierCache != nil {
		cfg.SupplierMiddleware = cache.Middleware(supplierCache, viper.GetDuration("cache.ttl"))
	}
	return cfg
}
