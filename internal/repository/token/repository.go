package token

import (
	"context"
	"time"
)

// Token kinds.
const (
	KindAccess        = "access"
	KindVerifyEmail   = "verify_email"
	KindResetPassword = "reset_password"
)

type Token struct {
	Token     string
	UserID    string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
