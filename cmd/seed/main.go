package main

import (
	"context"
	"log"

	"bookkeeper/internal/config"
	"bookkeeper/internal/database"
	"bookkeeper/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("connect failed", "error", err)
	}
	defer store.Close()

	db, release := store.SQL()
	defer release()

	if err := database.Migrate(db, store.Backend()); err != nil {
		logger.Fatalw("migrate failed", "error", err)
	}

	inserted, err := database.Seed(ctx, db, store.Backend())
	if err != nil {
		logger.Fatalw("seed failed", "error", err)
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&total); err != nil {
		logger.Fatalw("verify seed failed", "error", err)
	}
	logger.Infow("seed complete", "inserted", inserted, "total", total, "backend", store.Backend())
}
