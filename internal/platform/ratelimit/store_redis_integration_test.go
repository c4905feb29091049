//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/DaghanEmre/fintech-modular-platform/pkg/testutil/containers"
)

type RedisLimiterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	ctx   context.Context
}

func TestRedisLimiterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLimiterSuite))
}

func (s *RedisLimiterSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisLimiterSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisLimiterSuite) TestLimitIsShared() {
	a := NewRedis(s.redis.Client, 2, time.Minute)
	b := NewRedis(s.redis.Client, 2, time.Minute)

	first, err := a.Allow(s.ctx, "ip:shared")
	s.Require().NoError(err)
	s.True(first.Allowed)
	s.Equal(1, first.Remaining)

	second, err := b.Allow(s.ctx, "ip:shared")
	s.Require().NoError(err)
	s.True(second.Allowed)
	s.Equal(0, second.Remaining)

	third, err := a.Allow(s.ctx, "ip:shared")
	s.Require().NoError(err)
	s.False(third.Allowed)
	s.GreaterOrEqual(third.RetryAfter, 1)
}

func (s *RedisLimiterSuite) TestWindowSlides() {
	clock := time.Now()
	limiter := NewRedis(s.redis.Client, 1, time.Second)
	limiter.now = func() time.Time { return clock }

	result, err := limiter.Allow(s.ctx, "ip:slide")
	s.Require().NoError(err)
	s.True(result.Allowed)

	result, err = limiter.Allow(s.ctx, "ip:slide")
	s.Require().NoError(err)
	s.False(result.Allowed)

	clock = clock.Add(1100 * time.Millisecond)
	result, err = limiter.Allow(s.ctx, "ip:slide")
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisLimiterSuite) TestKeyExpires() {
	limiter := NewRedis(s.redis.Client, 5, time.Minute)
	_, err := limiter.Allow(s.ctx, "ip:ttl")
	s.Require().NoError(err)

	ttl, err := s.redis.Client.PTTL(s.ctx, redisKeyPrefix+"ip:ttl").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}
