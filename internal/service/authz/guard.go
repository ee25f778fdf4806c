// Package authz decides whether a caller may use admin operations.
package authz

import (
	"context"
	"errors"

	"pharmacy-store/internal/domain"
)

type userReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Guard re-reads the caller on every check so a demoted admin loses
// access immediately.
type Guard struct {
	users userReader
}

func NewGuard(users userReader) *Guard {
	return &Guard{users: users}
}

// RequireAdmin returns ErrUnauthorized when the caller cannot be
// resolved and ErrAdminRequired, which is also ErrUnauthorized, when the
// caller is not an admin.
func (g *Guard) RequireAdmin(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUnauthorized
	}
	if !u.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	return u, nil
}
