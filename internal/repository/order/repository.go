package order

import (
	"context"

	"pharmacy-store/internal/domain"
)

// Item is one product and quantity to order.
type Item struct {
	ProductID string
	Quantity  int
}

// PlaceInput describes one checkout. Every resulting order row shares
// CheckoutID.
type PlaceInput struct {
	CheckoutID      string
	UserID          string
	AddressID       string
	ShippingAddress string
	Payment         domain.PaymentInfo
	IsPaid          bool
	StatusID        string
	// Items is ignored when FromCart is set; the caller's whole cart is
	// ordered instead.
	Items    []Item
	FromCart bool
	// ExpectedTotal, when non-zero, must equal the total computed from
	// locked product prices.
	ExpectedTotal int64
}

// StatusChange moves one order to another status.
type StatusChange struct {
	OrderID  string
	StatusID string
	// OwnerID limits the change to orders of that user when set.
	OwnerID string
	// From limits the allowed current states when non-empty.
	From []domain.OrderState
}

type ListFilter struct {
	UserID   string
	StatusID string
	Limit    int
	Offset   int
}

type Repository interface {
	// Place decrements stock, records the orders and consumes the
	// matching cart lines in one transaction.
	Place(ctx context.Context, in PlaceInput) ([]domain.Order, error)
	// Quote prices items (or the cart) without locking, for payment
	// verification ahead of Place.
	Quote(ctx context.Context, userID string, items []Item, fromCart bool) (int64, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByCheckout(ctx context.Context, checkoutID string) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context, f ListFilter) ([]domain.Order, int, error)
	// ChangeStatus validates the transition and restocks on cancel.
	ChangeStatus(ctx context.Context, c StatusChange) (*domain.Order, error)
}
