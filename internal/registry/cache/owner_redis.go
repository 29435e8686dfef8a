// Package cache holds read-through caches in front of the registry store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "estate/pkg/domain"
	"estate/pkg/platform/circuit"
)

const (
	ownerKeyPrefix  = "estate:owner:"
	defaultOwnerTTL = 5 * time.Minute
)

// RedisOwnerCache caches owner_of answers. Entries expire after the TTL and are
// dropped by the service after every ownership change.
type RedisOwnerCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
}

type RedisOwnerCacheOption func(*RedisOwnerCache)

// WithTTL sets how long an owner entry lives. Non-positive values are ignored.
func WithTTL(ttl time.Duration) RedisOwnerCacheOption {
	return func(c *RedisOwnerCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithBreaker skips reads and writes while Redis keeps failing, so OwnerOf
// goes straight to the store instead of waiting on client timeouts.
// Invalidations are always attempted.
func WithBreaker(b *circuit.Breaker) RedisOwnerCacheOption {
	return func(c *RedisOwnerCache) {
		c.breaker = b
	}
}

func NewRedisOwnerCache(client *redis.Client, opts ...RedisOwnerCacheOption) *RedisOwnerCache {
	c := &RedisOwnerCache{client: client, ttl: defaultOwnerTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetOwner returns ok=false on a cache miss.
func (c *RedisOwnerCache) GetOwner(ctx context.Context, propertyID id.PropertyID) (id.AccountID, bool, error) {
	if !c.allow() {
		return id.AccountID{}, false, nil
	}
	raw, err := c.client.Get(ctx, ownerKey(propertyID)).Result()
	if errors.Is(err, redis.Nil) {
		c.record(nil)
		return id.AccountID{}, false, nil
	}
	c.record(err)
	if err != nil {
		return id.AccountID{}, false, fmt.Errorf("get cached owner: %w", err)
	}
	owner, err := id.ParseAccountID(raw)
	if err != nil {
		// A corrupt entry is a miss; the store answer will overwrite it.
		return id.AccountID{}, false, nil
	}
	return owner, true, nil
}

func (c *RedisOwnerCache) SetOwner(ctx context.Context, propertyID id.PropertyID, owner id.AccountID) error {
	if !c.allow() {
		return nil
	}
	err := c.client.Set(ctx, ownerKey(propertyID), owner.String(), c.ttl).Err()
	c.record(err)
	if err != nil {
		return fmt.Errorf("set cached owner: %w", err)
	}
	return nil
}

func (c *RedisOwnerCache) InvalidateOwner(ctx context.Context, propertyID id.PropertyID) error {
	err := c.client.Del(ctx, ownerKey(propertyID)).Err()
	c.record(err)
	if err != nil {
		return fmt.Errorf("invalidate cached owner: %w", err)
	}
	return nil
}

func (c *RedisOwnerCache) allow() bool {
	return c.breaker == nil || c.breaker.Allow()
}

func (c *RedisOwnerCache) record(err error) {
	if c.breaker == nil {
		return
	}
	if err != nil {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func ownerKey(propertyID id.PropertyID) string {
	return ownerKeyPrefix + propertyID.String()
}
