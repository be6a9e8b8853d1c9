package book

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the contract for book data storage.
type Repository interface {
	Create(ctx context.Context, b Book) error
	GetByID(ctx context.Context, id uuid.UUID) (Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	Update(ctx context.Context, b Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q Query) ([]Book, int, error)
}
