package book

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateParams is the full set of writable fields. PUT uses it as well: a
// replace carries every field, and absent optionals clear their columns.
type CreateParams struct {
	Title         string
	Author        string
	ISBN          string
	Description   string
	Pages         *int
	PublishedYear *int
}

// UpdateParams carries a partial update. Nil fields are left untouched.
type UpdateParams struct {
	Title         *string
	Author        *string
	ISBN          *string
	Description   *string
	Pages         *int
	PublishedYear *int
}

// Create stores a new book under a fresh ID. The ISBN must not be in use.
func (s *Service) Create(ctx context.Context, p CreateParams) (Book, error) {
	if err := s.checkISBNFree(ctx, p.ISBN, uuid.Nil); err != nil {
		return Book{}, err
	}

	now := timestamp()
	b := Book{
		ID:            uuid.New(),
		Title:         p.Title,
		Author:        p.Author,
		ISBN:          p.ISBN,
		Description:   p.Description,
		Pages:         p.Pages,
		PublishedYear: p.PublishedYear,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return Book{}, err
	}
	return b, nil
}

// Get returns a book by its ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces every writable field of an existing book. The ID and
// CreatedAt are immutable; UpdatedAt is refreshed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p CreateParams) (Book, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	if p.ISBN != b.ISBN {
		if err := s.checkISBNFree(ctx, p.ISBN, id); err != nil {
			return Book{}, err
		}
	}

	b.Title = p.Title
	b.Author = p.Author
	b.ISBN = p.ISBN
	b.Description = p.Description
	b.Pages = p.Pages
	b.PublishedYear = p.PublishedYear
	b.UpdatedAt = timestamp()

	if err := s.repo.Update(ctx, b); err != nil {
		return Book{}, err
	}
	return b, nil
}

// Patch applies the provided fields to an existing book and refreshes
// UpdatedAt. Fields left nil keep their stored values.
func (s *Service) Patch(ctx context.Context, id uuid.UUID, p UpdateParams) (Book, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	if p.ISBN != nil && *p.ISBN != b.ISBN {
		if err := s.checkISBNFree(ctx, *p.ISBN, id); err != nil {
			return Book{}, err
		}
		b.ISBN = *p.ISBN
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Pages != nil {
		b.Pages = p.Pages
	}
	if p.PublishedYear != nil {
		b.PublishedYear = p.PublishedYear
	}
	b.UpdatedAt = timestamp()

	if err := s.repo.Update(ctx, b); err != nil {
		return Book{}, err
	}
	return b, nil
}

// Delete permanently removes a book. Deleting an absent ID returns
// ErrNotFound, so a second delete of the same book fails cleanly.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List returns one page of books, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (Page, error) {
	return s.paginate(ctx, Query{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}, page, pageSize)
}

// Search returns one page of books whose title or author contains q,
// case-insensitively. An empty q lists everything.
func (s *Service) Search(ctx context.Context, q string, page, pageSize int) (Page, error) {
	return s.paginate(ctx, Query{
		Search: q,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}, page, pageSize)
}

func (s *Service) paginate(ctx context.Context, q Query, page, pageSize int) (Page, error) {
	books, total, err := s.repo.List(ctx, q)
	if err != nil {
		return Page{}, err
	}
	if books == nil {
		books = []Book{}
	}
	return Page{
		CurrentPage:  page,
		PageSize:     pageSize,
		TotalPages:   totalPages(total, pageSize),
		TotalRecords: total,
		Data:         books,
	}, nil
}

// checkISBNFree returns ErrDuplicateISBN when the ISBN belongs to a book
// other than self. The unique index on isbn remains the real guarantee;
// this pre-check just produces the friendlier error before an insert.
func (s *Service) checkISBNFree(ctx context.Context, isbn string, self uuid.UUID) error {
	other, err := s.repo.GetByISBN(ctx, isbn)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID == self {
		return nil
	}
	return ErrDuplicateISBN
}

func totalPages(total, pageSize int) int {
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// timestamp returns the current UTC time truncated to microseconds, the
// precision both backends store.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
