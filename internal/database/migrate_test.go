package database

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EveryFileHasUpAndDown(t *testing.T) {
	perDialect := map[string]int{}

	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}

		raw, err := fs.ReadFile(migrationsFS, path)
		require.NoError(t, err)

		content := string(raw)
		assert.Contains(t, content, "-- +goose Up", "%s is missing an Up section", path)
		assert.Contains(t, content, "-- +goose Down", "%s is missing a Down section", path)

		perDialect[filepath.Dir(path)]++
		return nil
	})
	require.NoError(t, err)

	// Both backends must carry the same schema history.
	assert.Greater(t, perDialect["migrations/postgres"], 0)
	assert.Greater(t, perDialect["migrations/sqlite"], 0)
	assert.Equal(t, perDialect["migrations/postgres"], perDialect["migrations/sqlite"])
}

func TestMigrate_SQLiteUpAndDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	db, err := OpenSQLite(path, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db, BackendSQLite))

	// Up is idempotent.
	require.NoError(t, Migrate(db, BackendSQLite))

	_, err = db.Exec(`INSERT INTO books (id, title, author, isbn, created_at, updated_at)
		VALUES ('id-1', 'T', 'A', '978-0000000001', '2024-01-01', '2024-01-01')`)
	require.NoError(t, err)

	require.NoError(t, MigrateCommand(db, BackendSQLite, "down"))

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'books'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMigrateCommand_Unknown(t *testing.T) {
	err := MigrateCommand(nil, BackendSQLite, "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown migration command "sideways"`)
}
