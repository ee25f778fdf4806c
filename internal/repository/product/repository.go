package product

import (
	"context"

	"pharmacy-store/internal/domain"
)

// Input carries the writable product fields.
type Input struct {
	SKU         string
	Name        string
	Description string
	Price       int64
	Quantity    int
	Status      domain.ProductStatus
	CategoryID  *string
	UnitID      *string
	TrademarkID *string
	Images      []string
}

type ListFilter struct {
	CategoryID string
	Status     domain.ProductStatus
	Search     string
	Limit      int
	Offset     int
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in Input) (*domain.Product, error)
	Update(ctx context.Context, id string, in Input) (*domain.Product, error)
	SetStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
	UpsertBySKU(ctx context.Context, in Input) (*domain.Product, error)
}
