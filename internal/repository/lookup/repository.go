package lookup

import (
	"context"

	"pharmacy-store/internal/domain"
)

// Repository manages one lookup table (categories, units or trademarks).
type Repository interface {
	Kind() domain.LookupKind
	List(ctx context.Context) ([]domain.Lookup, error)
	Get(ctx context.Context, id string) (*domain.Lookup, error)
	Create(ctx context.Context, key, name string) (*domain.Lookup, error)
	Update(ctx context.Context, id, key, name string) (*domain.Lookup, error)
	Delete(ctx context.Context, id string) error
	// Upsert creates or renames the row identified by key.
	Upsert(ctx context.Context, key, name string) (*domain.Lookup, error)
}
