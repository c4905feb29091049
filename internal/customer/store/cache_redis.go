package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/models"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/domain"
)

const customerKeyPrefix = "customer:v1:"

// Repository is the store contract the cache decorates.
type Repository interface {
	Save(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, id domain.CustomerID) (*models.Customer, error)
	FindByEmail(ctx context.Context, email models.Email) (*models.Customer, error)
}

// CachedRepository is a read-through Redis cache over FindByID. Save evicts
// the key after every underlying write attempt. Cache failures are logged and the
// underlying repository answers instead. FindByEmail is never cached because
// it backs the uniqueness check.
type CachedRepository struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps inner. A non-positive ttl defaults to five minutes.
func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Save evicts the key whatever the write outcome. A reader racing an open
// transaction can re-cache the pre-commit row; the next write then conflicts,
// and evicting on that conflict lets the retry read the committed row.
func (r *CachedRepository) Save(ctx context.Context, c *models.Customer) error {
	err := r.inner.Save(ctx, c)
	if delErr := r.client.Del(ctx, customerKey(c.ID())).Err(); delErr != nil {
		r.logger.WarnContext(ctx, "customer cache eviction failed",
			"customer_id", c.ID().String(),
			"error", delErr,
		)
	}
	return err
}

func (r *CachedRepository) FindByID(ctx context.Context, id domain.CustomerID) (*models.Customer, error) {
	key := customerKey(id)
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec record
		if jsonErr := json.Unmarshal(raw, &rec); jsonErr == nil {
			if c, convErr := rec.toCustomer(); convErr == nil {
				return c, nil
			}
		}
		r.logger.WarnContext(ctx, "discarding unreadable cached customer", "customer_id", id.String())
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "customer cache read failed", "customer_id", id.String(), "error", err)
	}

	c, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(toRecord(c))
	if err == nil {
		err = r.client.Set(ctx, key, payload, r.ttl).Err()
	}
	if err != nil {
		r.logger.WarnContext(ctx, "customer cache fill failed", "customer_id", id.String(), "error", err)
	}
	return c, nil
}

func (r *CachedRepository) FindByEmail(ctx context.Context, email models.Email) (*models.Customer, error) {
	return r.inner.FindByEmail(ctx, email)
}

func customerKey(id domain.CustomerID) string {
	return customerKeyPrefix + id.String()
}
