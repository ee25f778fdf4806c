package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized indicates the caller could not be identified.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAdminRequired is the Unauthorized case of a caller without the
	// admin role.
	ErrAdminRequired = fmt.Errorf("%w: admin role required", ErrUnauthorized)
	// ErrInvalidToken indicates an unknown, expired or mismatched token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified is returned on login before the email is confirmed.
	ErrEmailNotVerified = errors.New("email not verified")

	ErrOutOfStock         = errors.New("product out of stock")
	ErrNotForSale         = errors.New("product not for online sale")
	ErrStockExceeded      = errors.New("quantity exceeds available stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrPaymentNotVerified = errors.New("payment could not be verified")
	// ErrPaymentUsed is returned when a provider payment already backs
	// another checkout.
	ErrPaymentUsed = errors.New("payment already used")
	// ErrInUse indicates the entity is still referenced and cannot be removed.
	ErrInUse = errors.New("still referenced")
	// ErrInvalidInput marks errors caused by a malformed request.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError carries a caller-facing message and matches
// ErrInvalidInput.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalidf builds a ValidationError for field.
func Invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
