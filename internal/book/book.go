package book

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrDuplicateISBN is returned when another book already carries the ISBN.
var ErrDuplicateISBN = errors.New("book with this ISBN already exists")

// Book represents a book record. ID is assigned on create and never
// changes; optional fields are pointers or empty strings and map to NULL
// columns.
type Book struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          string    `json:"isbn"`
	Description   string    `json:"description,omitempty"`
	Pages         *int      `json:"pages,omitempty"`
	PublishedYear *int      `json:"published_year,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Query defines filtering and pagination for listing books. An empty Search
// matches every record.
type Query struct {
	Search string
	Limit  int
	Offset int
}

// Page is the wire shape for paginated listings. Data is always present,
// even when empty, and TotalPages is never below one.
type Page struct {
	CurrentPage  int    `json:"currentPage"`
	PageSize     int    `json:"pageSize"`
	TotalPages   int    `json:"totalPages"`
	TotalRecords int    `json:"totalRecords"`
	Data         []Book `json:"data"`
}
