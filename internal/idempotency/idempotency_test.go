package idempotency

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RedisStoreSuite struct {
	suite.Suite
	client *redis.Client
	store  Store
	ctx    context.Context
}

func TestRedisStore(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	s.ctx = context.Background()
	s.client = redis.NewClient(&redis.Options{Addr: addr})
	if err := s.client.Ping(s.ctx).Err(); err != nil {
		s.T().Skipf("no redis reachable at %s: %v", addr, err)
	}
	s.store = NewRedis(s.client, "test-"+uuid.NewString(), time.Minute)
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *RedisStoreSuite) TestReserveCompleteReplay() {
	t := s.T()
	key := uuid.NewString()

	_, reserved, err := s.store.Reserve(s.ctx, key)
	require.NoError(t, err)
	require.True(t, reserved)

	_, _, err = s.store.Reserve(s.ctx, key)
	require.ErrorIs(t, err, ErrInProgress)

	require.NoError(t, s.store.Complete(s.ctx, key, "checkout-1"))
	val, reserved, err := s.store.Reserve(s.ctx, key)
	require.NoError(t, err)
	require.False(t, reserved)
	require.Equal(t, "checkout-1", val)
}

func (s *RedisStoreSuite) TestReleaseAllowsRetry() {
	t := s.T()
	key := uuid.NewString()

	_, reserved, err := s.store.Reserve(s.ctx, key)
	require.NoError(t, err)
	require.True(t, reserved)
	require.NoError(t, s.store.Release(s.ctx, key))

	_, reserved, err = s.store.Reserve(s.ctx, key)
	require.NoError(t, err)
	require.True(t, reserved)
}
