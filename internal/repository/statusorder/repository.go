package statusorder

import (
	"context"

	"pharmacy-store/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.StatusOrder, error)
	Get(ctx context.Context, id string) (*domain.StatusOrder, error)
	// FirstForState returns the oldest status bound to state.
	FirstForState(ctx context.Context, state domain.OrderState) (*domain.StatusOrder, error)
	Create(ctx context.Context, name string, state domain.OrderState) (*domain.StatusOrder, error)
	Update(ctx context.Context, id, name string, state domain.OrderState) (*domain.StatusOrder, error)
	// Delete returns ErrInUse while orders still reference the status.
	Delete(ctx context.Context, id string) error
}
