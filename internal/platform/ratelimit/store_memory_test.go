package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 3
	testWindow = time.Minute
)

type InMemoryLimiterSuite struct {
	suite.Suite
	limiter *InMemoryLimiter
	clock   time.Time
	ctx     context.Context
}

func TestInMemoryLimiterSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLimiterSuite))
}

func (s *InMemoryLimiterSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.limiter = NewInMemory(testLimit, testWindow)
	s.limiter.now = func() time.Time { return s.clock }
}

func (s *InMemoryLimiterSuite) TestAllow() {
	s.Run("requests up to the limit are admitted", func() {
		for i := range testLimit {
			result, err := s.limiter.Allow(s.ctx, "ip:limit")
			s.Require().NoError(err)
			s.True(result.Allowed)
			s.Equal(testLimit, result.Limit)
			s.Equal(testLimit-i-1, result.Remaining)
		}
	})

	s.Run("request over the limit is denied with a retry hint", func() {
		for range testLimit {
			_, err := s.limiter.Allow(s.ctx, "ip:over")
			s.Require().NoError(err)
		}
		result, err := s.limiter.Allow(s.ctx, "ip:over")
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(60, result.RetryAfter)
	})

	s.Run("keys are independent", func() {
		for range testLimit {
			_, _ = s.limiter.Allow(s.ctx, "ip:a")
		}
		result, err := s.limiter.Allow(s.ctx, "ip:b")
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryLimiterSuite) TestWindowSlides() {
	for range testLimit {
		_, err := s.limiter.Allow(s.ctx, "ip:slide")
		s.Require().NoError(err)
	}

	s.clock = s.clock.Add(testWindow / 2)
	result, err := s.limiter.Allow(s.ctx, "ip:slide")
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(30, result.RetryAfter)

	s.clock = s.clock.Add(testWindow / 2)
	result, err = s.limiter.Allow(s.ctx, "ip:slide")
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit-1, result.Remaining)
}

func (s *InMemoryLimiterSuite) TestIdleKeysAreDropped() {
	for _, ip := range []string{"ip:1", "ip:2", "ip:3"} {
		_, err := s.limiter.Allow(s.ctx, ip)
		s.Require().NoError(err)
	}
	s.Equal(3, s.limiter.Len())

	s.clock = s.clock.Add(testWindow + time.Second)
	_, err := s.limiter.Allow(s.ctx, "ip:4")
	s.Require().NoError(err)

	s.Equal(1, s.limiter.Len(), "only the fresh key remains")
}

func (s *InMemoryLimiterSuite) TestReset() {
	for range testLimit {
		_, _ = s.limiter.Allow(s.ctx, "ip:reset")
	}
	s.limiter.Reset("ip:reset")

	result, err := s.limiter.Allow(s.ctx, "ip:reset")
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryLimiterSuite) TestConcurrentCallersNeverExceedLimit() {
	limiter := NewInMemory(50, testWindow)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.Allow(s.ctx, "ip:concurrent")
			if err == nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(50, allowed)
}
