// Package idempotency remembers the outcome of client-keyed requests so
// a retried checkout returns the first result instead of ordering twice.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const pending = "\x00pending"

// ErrInProgress is returned while another request holds the same key.
var ErrInProgress = errors.New("request with this idempotency key is in progress")

// Store reserves keys and records their results.
type Store interface {
	// Reserve claims key. When the key already completed, its recorded
	// value is returned with reserved=false.
	Reserve(ctx context.Context, key string) (value string, reserved bool, err error)
	Complete(ctx context.Context, key, value string) error
	// Release drops a reservation after a failed attempt so the client
	// may retry.
	Release(ctx context.Context, key string) error
}

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *redisStore) key(k string) string {
	return "idem:" + s.prefix + ":" + k
}

func (s *redisStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), pending, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SetNX and Get
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return "", false, err
	}
	if val == pending {
		return "", false, ErrInProgress
	}
	return val, false, nil
}

func (s *redisStore) Complete(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *redisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
