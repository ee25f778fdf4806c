package cart

import (
	"context"

	"pharmacy-store/internal/domain"
)

// Repository stores one line per (user, product). Every quantity change
// is a single guarded statement so concurrent callers never lose updates.
type Repository interface {
	// Add inserts a line with quantity 1 or bumps the existing one.
	// created is true when a new line was inserted.
	Add(ctx context.Context, userID, productID string) (line *domain.CartLine, created bool, err error)
	Increment(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	// Decrement lowers the quantity by one and removes the line at 1.
	// The returned line is nil when it was removed.
	Decrement(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	Get(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	Delete(ctx context.Context, userID, productID string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error)
}
