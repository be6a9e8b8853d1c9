package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Backend identifies the storage engine a Store runs on.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// ErrBackendUnavailable is returned when the requested backend cannot be
// reached. In forced modes this aborts startup.
var ErrBackendUnavailable = errors.New("database backend unavailable")

// Store is a live connection to the selected backend. Exactly one of the
// two handles is set, matching Backend().
type Store struct {
	backend Backend
	pool    *pgxpool.Pool
	db      *sql.DB
}

// Backend reports which engine the store is connected to.
func (s *Store) Backend() Backend {
	return s.backend
}

// Pool returns the pgx pool. Only valid when Backend() is BackendPostgres.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// DB returns the SQLite handle. Only valid when Backend() is BackendSQLite.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SQL returns a database/sql handle for the selected backend along with a
// release func for when the caller is done. For postgres the handle is an
// adapter over the pool and releasing it leaves the pool open; for sqlite
// it is the store's own handle and release is a no-op.
func (s *Store) SQL() (*sql.DB, func()) {
	if s.backend == BackendPostgres {
		db := stdlib.OpenDBFromPool(s.pool)
		return db, func() { _ = db.Close() }
	}
	return s.db, func() {}
}

// Ping verifies the backend is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.backend == BackendPostgres {
		return s.pool.Ping(ctx)
	}
	return s.db.PingContext(ctx)
}

// Close releases the underlying connections.
func (s *Store) Close() {
	if s.backend == BackendPostgres {
		s.pool.Close()
		return
	}
	_ = s.db.Close()
}
