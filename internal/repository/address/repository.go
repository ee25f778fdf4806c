package address

import (
	"context"

	"pharmacy-store/internal/domain"
)

type Input struct {
	FullName     string
	Phone        string
	ProvinceCode string
	DistrictCode string
	WardCode     string
	Detail       string
	IsDefault    bool
}

// Repository scopes every operation to the owning user.
type Repository interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Get(ctx context.Context, userID, id string) (*domain.Address, error)
	Create(ctx context.Context, userID string, in Input) (*domain.Address, error)
	Update(ctx context.Context, userID, id string, in Input) (*domain.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) (*domain.Address, error)
}
