package main

import (
	"context"
	"flag"
	"log"

	"bookkeeper/internal/config"
	"bookkeeper/internal/database"
	"bookkeeper/internal/logging"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down, status, version")
	flag.Parse()

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

	if err := database.MigrateCommand(db, store.Backend(), *command); err != nil {
		logger.Fatalw("migration failed", "command", *command, "error", err)
	}
	logger.Infow("migration command complete", "command", *command, "backend", store.Backend())
}
