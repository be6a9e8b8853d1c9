package database

import (
	"context"
	"fmt"

	"bookkeeper/internal/config"

	"go.uber.org/zap"
)

// Bootstrap is the single startup procedure every binary goes through:
// pick a backend per the configured mode, verify it is reachable, bring
// the schema up to date and seed the sample data when enabled. Each step
// is idempotent, so restarting against an existing database changes
// nothing.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*Store, error) {
	store, err := Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	db, release := store.SQL()
	defer release()

	if err := Migrate(db, store.Backend()); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate %s schema: %w", store.Backend(), err)
	}

	if cfg.SeedOnStart {
		inserted, err := Seed(ctx, db, store.Backend())
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("seed sample data: %w", err)
		}
		if inserted > 0 {
			logger.Infow("seeded sample books", "count", inserted)
		}
	}

	return store, nil
}

// Connect opens a store for the configured mode. Forced modes fail with
// ErrBackendUnavailable when their backend cannot be reached; auto mode
// falls back to the SQLite file after logging what happened.
func Connect(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*Store, error) {
	switch cfg.DBMode {
	case config.ModePostgres:
		pool, err := OpenPostgres(ctx, cfg.PostgresDSN, cfg.MaxConns, cfg.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		logger.Infow("database connection OK", "backend", BackendPostgres, "dsn", RedactDSN(cfg.PostgresDSN))
		return &Store{backend: BackendPostgres, pool: pool}, nil

	case config.ModeSQLite:
		db, err := OpenSQLite(cfg.SQLitePath, cfg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		logger.Infow("database connection OK", "backend", BackendSQLite, "path", cfg.SQLitePath)
		return &Store{backend: BackendSQLite, db: db}, nil

	default: // auto
		pool, err := OpenPostgres(ctx, cfg.PostgresDSN, cfg.MaxConns, cfg.ConnectTimeout)
		if err == nil {
			logger.Infow("database connection OK", "backend", BackendPostgres, "dsn", RedactDSN(cfg.PostgresDSN))
			return &Store{backend: BackendPostgres, pool: pool}, nil
		}
		logger.Warnw("postgres unreachable, falling back to sqlite",
			"error", err,
			"path", cfg.SQLitePath,
		)

		db, err := OpenSQLite(cfg.SQLitePath, cfg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return &Store{backend: BackendSQLite, db: db}, nil
	}
}
