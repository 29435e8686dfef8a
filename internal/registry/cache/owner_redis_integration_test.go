//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"estate/internal/registry/cache"
	id "estate/pkg/domain"
	"estate/pkg/testutil/containers"
)

type RedisOwnerCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.RedisOwnerCache
	ctx   context.Context
}

func TestRedisOwnerCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisOwnerCacheSuite))
}

func (s *RedisOwnerCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.Require().NoError(s.redis.Health(context.Background()))
	s.ctx = context.Background()
}

func (s *RedisOwnerCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.cache = cache.NewRedisOwnerCache(s.redis.Client.Client, cache.WithTTL(time.Minute))
}

func (s *RedisOwnerCacheSuite) TestMissThenHit() {
	alice := id.AccountIDFromSeed("alice")

	_, ok, err := s.cache.GetOwner(s.ctx, 0)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.cache.SetOwner(s.ctx, 0, alice))
	owner, ok, err := s.cache.GetOwner(s.ctx, 0)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(alice, owner)
}

func (s *RedisOwnerCacheSuite) TestZeroOwnerIsCached() {
	s.Require().NoError(s.cache.SetOwner(s.ctx, 9, id.AccountID{}))
	owner, ok, err := s.cache.GetOwner(s.ctx, 9)
	s.Require().NoError(err)
	s.True(ok)
	s.True(owner.IsZero())
}

func (s *RedisOwnerCacheSuite) TestInvalidate() {
	s.Require().NoError(s.cache.SetOwner(s.ctx, 1, id.AccountIDFromSeed("bob")))
	s.Require().NoError(s.cache.InvalidateOwner(s.ctx, 1))
	_, ok, err := s.cache.GetOwner(s.ctx, 1)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisOwnerCacheSuite) TestTTLIsApplied() {
	s.Require().NoError(s.cache.SetOwner(s.ctx, 2, id.AccountIDFromSeed("carol")))
	ttl, err := s.redis.Client.TTL(s.ctx, "estate:owner:2").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}
