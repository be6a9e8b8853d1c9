package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

const sqliteBookColumns = `id, title, author, isbn, description, pages, published_year, created_at, updated_at`

func (r *SQLiteRepo) Create(ctx context.Context, b Book) error {
	const query = `
		INSERT INTO books (id, title, author, isbn, description, pages, published_year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.Title, b.Author, b.ISBN, nullIfEmpty(b.Description),
		b.Pages, b.PublishedYear, b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id uuid.UUID) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = ?`, sqliteBookColumns)
	return scanSQLiteBook(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE isbn = ? LIMIT 1`, sqliteBookColumns)
	return scanSQLiteBook(r.db.QueryRowContext(ctx, query, isbn))
}

func (r *SQLiteRepo) Update(ctx context.Context, b Book) error {
	const query = `
		UPDATE books
		SET title = ?, author = ?, isbn = ?, description = ?,
		    pages = ?, published_year = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		b.Title, b.Author, b.ISBN, nullIfEmpty(b.Description),
		b.Pages, b.PublishedYear, b.UpdatedAt.UTC(), b.ID,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("update book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	where := ""
	args := []any{}

	if q.Search != "" {
		where = "WHERE (LOWER(title) LIKE ? OR LOWER(author) LIKE ?)"
		pattern := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, pattern, pattern)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM books %s", where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM books
		%s
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`,
		sqliteBookColumns, where)

	args = append(args, q.Limit, q.Offset)
	rows, err := r.db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanSQLiteBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// rowScanner lets scanSQLiteBook serve both QueryRow and Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBook(row rowScanner) (Book, error) {
	var (
		b     Book
		desc  sql.NullString
		pages sql.NullInt64
		year  sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &desc,
		&pages, &year, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	if desc.Valid {
		b.Description = desc.String
	}
	if pages.Valid {
		n := int(pages.Int64)
		b.Pages = &n
	}
	if year.Valid {
		n := int(year.Int64)
		b.PublishedYear = &n
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
