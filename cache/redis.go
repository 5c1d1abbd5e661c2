package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/medicineparser/entities"
	"github.com/redis/go-redis/v9"
)

// Compile-time check to ensure RedisCache implements AlternativesCache interface
var _ interfaces.AlternativesCache = (*RedisCache)(nil)

const (
	defaultPrefix = "medishortage:alternatives:"
	defaultTTL    = 12 * time.Hour
)

// RedisCache shares alternatives results between replicas
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to the redis server at url (redis://, rediss:// or host:port)
// and checks the connection. A non-positive ttl falls back to 12h.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := parseRedisURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &RedisCache{client: client, prefix: defaultPrefix, ttl: ttl}, nil
}

func parseRedisURL(url string) (*redis.Options, error) {
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis URL: %w", err)
		}
		return opts, nil
	}
	if url == "" {
		return nil, errors.New("redis address is required")
	}
	return &redis.Options{Addr: url}, nil
}

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

// Get returns the cached result for key. A missing key is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) (entities.AlternativesResult, bool, error) {
	var result entities.AlternativesResult

	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return result, false, nil
	}
	if err != nil {
		return result, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return result, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return result, true, nil
}

// Set stores result under key with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, result entities.AlternativesResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Purge deletes every key under the cache prefix
func (c *RedisCache) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return iter.Err()
}

// Len is not tracked for the shared cache
func (c *RedisCache) Len() int {
	return -1
}

// Name identifies the backend in logs and health output
func (c *RedisCache) Name() string {
	return "redis"
}

// Close closes the redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
