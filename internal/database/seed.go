package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type seedBook struct {
	title         string
	author        string
	isbn          string
	description   string
	pages         int
	publishedYear int
}

var sampleBooks = []seedBook{
	{"Clean Code", "Robert C. Martin", "978-0132350884", "A Handbook of Agile Software Craftsmanship", 464, 2008},
	{"The Pragmatic Programmer", "Andrew Hunt", "978-0135957059", "Your Journey to Mastery in Software Development", 352, 2019},
	{"Design Patterns", "Gang of Four", "978-0201633610", "Elements of Reusable Object-Oriented Software", 395, 1994},
	{"Refactoring", "Martin Fowler", "978-0134757599", "Improving the Design of Existing Code", 472, 2018},
	{"The Mythical Man-Month", "Frederick P. Brooks Jr.", "978-0201835953", "Essays on Software Engineering", 336, 1995},
	{"Code Complete", "Steve McConnell", "978-0735619678", "A Practical Handbook of Software Construction", 960, 2004},
}

// Seed inserts the sample dataset when the books table is empty and reports
// how many rows it added. A non-empty table is left untouched, which keeps
// repeated bootstraps from duplicating data.
func Seed(ctx context.Context, db *sql.DB, backend Backend) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&count); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := rebind(`
		INSERT INTO books (id, title, author, isbn, description, pages, published_year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, backend)

	now := time.Now().UTC().Truncate(time.Microsecond)
	for _, b := range sampleBooks {
		if _, err := tx.ExecContext(ctx, query,
			uuid.New(), b.title, b.author, b.isbn, b.description,
			b.pages, b.publishedYear, now, now,
		); err != nil {
			return 0, fmt.Errorf("insert %q: %w", b.title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed tx: %w", err)
	}
	return len(sampleBooks), nil
}

// rebind rewrites ? placeholders to $n for postgres. SQLite takes ? as is.
func rebind(query string, backend Backend) string {
	if backend != BackendPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
