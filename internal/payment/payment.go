// Package payment confirms client-reported payments with the provider
// before an order is recorded as paid.
package payment

import (
	"context"
	"fmt"
	"strings"

	"pharmacy-store/internal/domain"
)

// Result is the server-side view of a payment.
type Result struct {
	Paid bool
	// Payment is the metadata to persist on the order.
	Payment domain.PaymentInfo
}

// Verifier checks one payment made by userID for the expected amount in
// VND.
type Verifier interface {
	Verify(ctx context.Context, userID string, info domain.PaymentInfo, amount int64) (Result, error)
}

// Intent is a provider payment the client completes before checkout.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Router dispatches on PaymentInfo.Source. Cash on delivery needs no
// verification and is recorded unpaid.
type Router struct {
	providers map[string]Verifier
}

func NewRouter() *Router {
	return &Router{providers: map[string]Verifier{}}
}

// Register binds a provider to a payment source.
func (r *Router) Register(source string, v Verifier) {
	r.providers[strings.ToLower(source)] = v
}

func (r *Router) Verify(ctx context.Context, userID string, info domain.PaymentInfo, amount int64) (Result, error) {
	source := strings.ToLower(strings.TrimSpace(info.Source))
	if source == domain.PaymentCOD {
		return Result{Paid: false, Payment: domain.PaymentInfo{Source: domain.PaymentCOD}}, nil
	}
	v, ok := r.providers[source]
	if !ok {
		return Result{}, fmt.Errorf("%w: unsupported payment source %q", domain.ErrPaymentNotVerified, info.Source)
	}
	info.Source = source
	return v.Verify(ctx, userID, info, amount)
}
