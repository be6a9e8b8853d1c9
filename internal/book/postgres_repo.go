package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const postgresBookColumns = `id, title, author, isbn, description, pages, published_year, created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, b Book) error {
	const sql = `
		INSERT INTO books (id, title, author, isbn, description, pages, published_year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, sql,
		b.ID, b.Title, b.Author, b.ISBN, nullIfEmpty(b.Description),
		b.Pages, b.PublishedYear, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id uuid.UUID) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1`, postgresBookColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE isbn = $1 LIMIT 1`, postgresBookColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, isbn))
}

func (r *PostgresRepo) Update(ctx context.Context, b Book) error {
	const sql = `
		UPDATE books
		SET title = $1, author = $2, isbn = $3, description = $4,
		    pages = $5, published_year = $6, updated_at = $7
		WHERE id = $8`

	tag, err := r.db.Exec(ctx, sql,
		b.Title, b.Author, b.ISBN, nullIfEmpty(b.Description),
		b.Pages, b.PublishedYear, b.UpdatedAt, b.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	where := ""
	args := []any{}
	argn := 1

	if q.Search != "" {
		where = fmt.Sprintf("WHERE (title ILIKE $%d OR author ILIKE $%d)", argn, argn+1)
		pattern := "%" + q.Search + "%"
		args = append(args, pattern, pattern)
		argn += 2
	}

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM books %s", where)
	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT %s
		FROM books
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		postgresBookColumns, where, argn, argn+1)

	args = append(args, q.Limit, q.Offset)
	rows, err := r.db.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var (
			b    Book
			desc *string
		)
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.ISBN, &desc,
			&b.Pages, &b.PublishedYear, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		if desc != nil {
			b.Description = *desc
		}
		b.CreatedAt = b.CreatedAt.UTC()
		b.UpdatedAt = b.UpdatedAt.UTC()
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) scanOne(row pgx.Row) (Book, error) {
	var (
		b    Book
		desc *string
	)
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &desc,
		&b.Pages, &b.PublishedYear, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	if desc != nil {
		b.Description = *desc
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// nullIfEmpty maps the empty string to NULL for optional text columns.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
