// internal/pkg/idemcache/cache.go
package idemcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyTTL = 24 * time.Hour

// Cache is the Redis fast path for idempotency-key lookups. It is
// advisory only: the unique constraint in Postgres is the guarantee,
// the cache just spares a query for repeated submissions.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) key(tenantID int64, idemKey string) string {
	return fmt.Sprintf("idem:%d:%s", tenantID, idemKey)
}

// Get returns the payment reference recorded for this idempotency key,
// if any. Redis errors degrade to a miss.
func (c *Cache) Get(ctx context.Context, tenantID int64, idemKey string) (string, bool) {
	val, err := c.client.Get(ctx, c.key(tenantID, idemKey)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, tenantID int64, idemKey, reference string) {
	// Best effort; a failed write only costs a future DB lookup.
	c.client.Set(ctx, c.key(tenantID, idemKey), reference, keyTTL)
}
