package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/tokenlens/internal/metrics"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Cache is a read-through TTL cache for serialized aggregation
// responses. All failures degrade to a miss; a broken cache never fails
// a request.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a new Redis-backed response cache.
func NewCache(cfg Config) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = time.Minute
	}

	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Key builds a cache key from the endpoint and its query parameters.
func Key(endpoint, token string, parts ...string) string {
	segments := append([]string{"tokenlens", endpoint, token}, parts...)
	return strings.Join(segments, ":")
}

// Get returns the cached response body, if any.
func (c *Cache) Get(ctx context.Context, endpoint, key string) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues(endpoint).Inc()
		return nil, false
	}
	if err != nil {
		slog.Warn("Cache get failed", "key", key, "error", err)
		metrics.CacheMisses.WithLabelValues(endpoint).Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues(endpoint).Inc()
	return val, true
}

// Set stores a response body under the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, body []byte) {
	if err := c.rdb.Set(ctx, key, body, c.ttl).Err(); err != nil {
		slog.Warn("Cache set failed", "key", key, "error", err)
	}
}
