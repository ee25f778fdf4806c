package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"pharmacy-store/internal/domain"
	tokenrepo "pharmacy-store/internal/repository/token"
)

type tokenManager struct {
	repo tokenrepo.Repository
	now  func() time.Time
}

func newTokenManager(repo tokenrepo.Repository, now func() time.Time) *tokenManager {
	return &tokenManager{repo: repo, now: now}
}

// Issue stores a new access token for the user, retrying on the rare
// random collision.
func (m *tokenManager) Issue(ctx context.Context, userID string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := m.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", time.Time{}, err
		}
		err = m.repo.Create(ctx, tokenrepo.Token{
			Token:     token,
			UserID:    userID,
			Kind:      tokenrepo.KindAccess,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, expiresAt, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", time.Time{}, err
	}
	return "", time.Time{}, errors.New("token collision")
}

// Validate returns the owner of a live access token.
func (m *tokenManager) Validate(ctx context.Context, token string) (string, bool) {
	meta, err := m.repo.Get(ctx, token)
	if err != nil {
		return "", false
	}
	if meta.Kind != tokenrepo.KindAccess {
		return "", false
	}
	if meta.Expired(m.now()) {
		_ = m.repo.Delete(ctx, token)
		return "", false
	}
	return meta.UserID, true
}

func (m *tokenManager) Revoke(ctx context.Context, token string) error {
	err := m.repo.Delete(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (m *tokenManager) Purge(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now())
}
