package user

import (
	"context"
	"time"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/repository/token"
)

type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Register inserts the user and its verification token in one
	// transaction. beforeCommit runs inside the transaction; an error
	// from it rolls both rows back.
	Register(ctx context.Context, u domain.User, verify token.Token, beforeCommit func(*domain.User) error) (*domain.User, error)
	// ConsumeVerification marks the token owner verified and deletes the token.
	ConsumeVerification(ctx context.Context, tok string, now time.Time) (*domain.User, error)
	// ReplaceResetToken drops earlier reset tokens of the user and stores reset.
	ReplaceResetToken(ctx context.Context, reset token.Token, beforeCommit func() error) error
	// ResetPassword sets a new hash for the token owner and deletes the token.
	ResetPassword(ctx context.Context, tok, passwordHash string, now time.Time) error
}
