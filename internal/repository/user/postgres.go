package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"pharmacy-store/internal/db"
	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"
	"pharmacy-store/internal/repository/token"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const userColumns = `id::text, email, password_hash, full_name, phone, role, email_verified, created_at`

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	return insertUser(ctx, r.pool, u)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, q, strings.TrimSpace(email)))
}

func (r *postgresRepo) Register(ctx context.Context, u domain.User, verify token.Token, beforeCommit func(*domain.User) error) (*domain.User, error) {
	var created *domain.User
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = insertUser(ctx, tx, u)
		if err != nil {
			return err
		}
		verify.UserID = created.ID
		if err := token.Insert(ctx, tx, verify); err != nil {
			return err
		}
		if beforeCommit != nil {
			return beforeCommit(created)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			r.logger.Warn("user repo: register rolled back", zap.String("email", u.Email), zap.Error(err))
		}
		return nil, err
	}
	return created, nil
}

func (r *postgresRepo) ConsumeVerification(ctx context.Context, tok string, now time.Time) (*domain.User, error) {
	var verified *domain.User
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		userID, err := takeToken(ctx, tx, tok, token.KindVerifyEmail, now)
		if err != nil {
			return err
		}
		const q = `UPDATE users SET email_verified = TRUE WHERE id = $1 RETURNING ` + userColumns
		verified, err = scanUser(tx.QueryRow(ctx, q, userID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return verified, nil
}

func (r *postgresRepo) ReplaceResetToken(ctx context.Context, reset token.Token, beforeCommit func() error) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tokens WHERE user_id = $1 AND kind = $2`, reset.UserID, token.KindResetPassword); err != nil {
			return err
		}
		if err := token.Insert(ctx, tx, reset); err != nil {
			return err
		}
		if beforeCommit != nil {
			return beforeCommit()
		}
		return nil
	})
}

func (r *postgresRepo) ResetPassword(ctx context.Context, tok, passwordHash string, now time.Time) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		userID, err := takeToken(ctx, tx, tok, token.KindResetPassword, now)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID); err != nil {
			return err
		}
		// Existing sessions die with the old password.
		_, err = tx.Exec(ctx, `DELETE FROM tokens WHERE user_id = $1 AND kind = $2`, userID, token.KindAccess)
		return err
	})
}

// takeToken deletes a token of the given kind and returns its owner.
// Unknown, expired or wrong-kind tokens yield ErrInvalidToken.
func takeToken(ctx context.Context, tx pgx.Tx, tok, kind string, now time.Time) (string, error) {
	const q = `
DELETE FROM tokens
WHERE token = $1 AND kind = $2
RETURNING user_id::text, expires_at
`
	var (
		userID    string
		expiresAt time.Time
	)
	if err := tx.QueryRow(ctx, q, tok, kind).Scan(&userID, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrInvalidToken
		}
		return "", err
	}
	if now.After(expiresAt) {
		return "", domain.ErrInvalidToken
	}
	return userID, nil
}

func insertUser(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, u domain.User) (*domain.User, error) {
	const stmt = `
INSERT INTO users (email, password_hash, full_name, phone, role, email_verified)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	return scanUser(q.QueryRow(ctx, stmt,
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.PasswordHash,
		u.FullName,
		u.Phone,
		role,
		u.EmailVerified,
	))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Phone,
		&role,
		&u.EmailVerified,
		&u.CreatedAt,
	)
	if err != nil {
		if db.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
