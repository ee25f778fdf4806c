package domain

import "time"

// CartLine is a pending quantity of one product for one user.
type CartLine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Product   *Product  `json:"product,omitempty"`
}

// Subtotal is zero when the product was not loaded.
func (l CartLine) Subtotal() int64 {
	if l.Product == nil {
		return 0
	}
	return l.Product.Price * int64(l.Quantity)
}
