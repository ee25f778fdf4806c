package domain

import "time"

// OrderState is the lifecycle position of an order.
type OrderState string

const (
	StatePending   OrderState = "pending"
	StatePaid      OrderState = "paid"
	StateShipped   OrderState = "shipped"
	StateCompleted OrderState = "completed"
	StateCancelled OrderState = "cancelled"
)

var orderTransitions = map[OrderState][]OrderState{
	StatePending: {StatePaid, StateCancelled},
	StatePaid:    {StateShipped, StateCancelled},
	StateShipped: {StateCompleted},
}

func (s OrderState) Valid() bool {
	switch s {
	case StatePending, StatePaid, StateShipped, StateCompleted, StateCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from s to next.
// Moving between two statuses bound to the same state is allowed.
func (s OrderState) CanTransition(next OrderState) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StatusOrder is an admin-named status bound to one lifecycle state.
type StatusOrder struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	State     OrderState `json:"state"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Payment sources accepted at checkout.
const (
	PaymentCOD    = "cod"
	PaymentStripe = "stripe"
)

// PaymentInfo is the metadata returned by the payment widget.
type PaymentInfo struct {
	Source          string `json:"source"`
	ExternalOrderID string `json:"externalOrderId,omitempty"`
	PaymentID       string `json:"paymentId,omitempty"`
	PayerID         string `json:"payerId,omitempty"`
}

// Order is one product line placed by a user.
type Order struct {
	ID              string       `json:"id"`
	CheckoutID      string       `json:"checkoutId"`
	UserID          string       `json:"userId"`
	ProductID       string       `json:"productId"`
	Quantity        int          `json:"quantity"`
	UnitPrice       int64        `json:"unitPrice"`
	AddressID       string       `json:"addressId"`
	ShippingAddress string       `json:"shippingAddress"`
	IsPaid          bool         `json:"isPaid"`
	Payment         PaymentInfo  `json:"payment"`
	StatusID        string       `json:"statusId"`
	Status          *StatusOrder `json:"status,omitempty"`
	ProductName     string       `json:"productName,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

func (o Order) Total() int64 {
	return o.UnitPrice * int64(o.Quantity)
}
