package database

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// goose configures dialect and filesystem through package-level state, so
// concurrent migrations (e.g. parallel tests) need serializing.
var gooseMu sync.Mutex

// Migrate brings the schema up to date. Running it against an already
// migrated database is a no-op.
func Migrate(db *sql.DB, backend Backend) error {
	return MigrateCommand(db, backend, "up")
}

// MigrateCommand runs a single goose command (up, down, status or version)
// against the embedded migrations for the given backend.
func MigrateCommand(db *sql.DB, backend Backend, command string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect(backend)); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	dir := migrationsDir(backend)
	switch command {
	case "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	default:
		return fmt.Errorf("unknown migration command %q: use up, down, status or version", command)
	}
}

func dialect(backend Backend) string {
	if backend == BackendSQLite {
		return "sqlite3"
	}
	return "postgres"
}

func migrationsDir(backend Backend) string {
	if backend == BackendSQLite {
		return "migrations/sqlite"
	}
	return "migrations/postgres"
}
