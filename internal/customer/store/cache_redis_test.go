package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/models"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/sentinel"
)

func TestCachedRepositoryFallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemory()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	repo := NewCachedRepository(inner, client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	email, err := models.NewEmail("down@example.com")
	require.NoError(t, err)
	c, err := models.New(email, time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, c))
	got, err := repo.FindByID(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, c.ID(), got.ID())

	byEmail, err := repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, c.ID(), byEmail.ID())
}

// memoryRedis answers GET, SET and DEL from a map inside a go-redis hook, so
// the cache logic runs without a server.
type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryRedisClient() (*redis.Client, *memoryRedis) {
	fake := &memoryRedis{data: map[string]string{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	client.AddHook(fake)
	return client, fake
}

func (m *memoryRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (m *memoryRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memoryRedis) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		args := cmd.Args()
		key, _ := args[1].(string)
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := m.data[key]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			switch v := args[2].(type) {
			case []byte:
				m.data[key] = string(v)
			case string:
				m.data[key] = v
			}
			c.SetVal("OK")
		case *redis.IntCmd:
			var n int64
			for _, a := range args[1:] {
				if k, ok := a.(string); ok {
					if _, found := m.data[k]; found {
						delete(m.data, k)
						n++
					}
				}
			}
			c.SetVal(n)
		}
		return nil
	}
}

func (m *memoryRedis) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// conflictingStore rejects every write as stale.
type conflictingStore struct {
	*InMemoryStore
}

func (conflictingStore) Save(context.Context, *models.Customer) error {
	return sentinel.ErrConflict
}

func TestCachedRepositoryEviction(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newCustomer := func(t *testing.T, inner *InMemoryStore) *models.Customer {
		email, err := models.NewEmail("evict@example.com")
		require.NoError(t, err)
		c, err := models.New(email, time.Now())
		require.NoError(t, err)
		require.NoError(t, inner.Save(ctx, c))
		return c
	}

	t.Run("conflict on save evicts the cached row", func(t *testing.T) {
		client, fake := newMemoryRedisClient()
		defer client.Close()
		inner := NewInMemory()
		c := newCustomer(t, inner)

		repo := NewCachedRepository(conflictingStore{inner}, client, time.Minute, logger)
		_, err := repo.FindByID(ctx, c.ID())
		require.NoError(t, err)
		require.True(t, fake.has(customerKey(c.ID())), "read fills the cache")

		err = repo.Save(ctx, c)
		require.ErrorIs(t, err, sentinel.ErrConflict)
		assert.False(t, fake.has(customerKey(c.ID())))
	})

	t.Run("successful save evicts and the next read sees the new version", func(t *testing.T) {
		client, fake := newMemoryRedisClient()
		defer client.Close()
		inner := NewInMemory()
		c := newCustomer(t, inner)
		repo := NewCachedRepository(inner, client, time.Minute, logger)

		cached, err := repo.FindByID(ctx, c.ID())
		require.NoError(t, err)
		require.NoError(t, cached.Activate(time.Now()))
		require.NoError(t, repo.Save(ctx, cached))
		assert.False(t, fake.has(customerKey(c.ID())))

		fresh, err := repo.FindByID(ctx, c.ID())
		require.NoError(t, err)
		assert.Equal(t, cached.Version(), fresh.Version())
		assert.Equal(t, "ACTIVE", fresh.Status().String())
	})
}
