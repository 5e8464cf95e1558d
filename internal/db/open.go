package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sketchboard/sketchboard/backend-go/internal/config"
)

// Open returns the Store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("using postgres store")
		return store, nil
	case config.DriverSQLite:
		store, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("using sqlite store", "path", cfg.SQLitePath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
