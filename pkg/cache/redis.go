package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuslab/research-adm-api/pkg/config"
)

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// LookupCache memoises name-to-id resolutions for lookup entities
// (organizations, campuses, knowledge areas, types). The import pipeline
// never deletes lookup rows, so cached ids stay valid for their TTL.
type LookupCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLookupCache wraps a Redis client. A nil client yields a no-op cache.
func NewLookupCache(client *redis.Client, ttl time.Duration) *LookupCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &LookupCache{client: client, ttl: ttl}
}

func lookupKey(kind, name string) string {
	return fmt.Sprintf("lookup:%s:%s", kind, strings.ToLower(strings.TrimSpace(name)))
}

// Get returns the cached id for a lookup entity name, if present.
func (c *LookupCache) Get(ctx context.Context, kind, name string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	id, err := c.client.Get(ctx, lookupKey(kind, name)).Result()
	if err != nil {
		return "", false
	}
	return id, true
}

// Set stores the id for a lookup entity name. Failures are ignored; the
// cache is an optimisation, not a source of truth.
func (c *LookupCache) Set(ctx context.Context, kind, name, id string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, lookupKey(kind, name), id, c.ttl).Err()
}
