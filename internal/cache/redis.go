package cache

import (
	"context"
	"errors"
	"time"

	"github.com/picstream/backend/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned when a key is absent (or caching is disabled)
var ErrMiss = errors.New("cache miss")

// FeedCache caches rendered feed pages in Redis with a short TTL.
// A nil *FeedCache is a valid no-op cache, so callers never have to
// branch on whether Redis is configured.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache connects to Redis at the given URL
// (redis://[user:pass@]host:port/db). Returns nil (cache disabled)
// when the URL is empty.
func NewFeedCache(redisURL string, ttl time.Duration) (*FeedCache, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opts.MaxRetries = 3
	opts.PoolSize = 10
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		return nil, err
	}

	logger.Log.Info("Redis feed cache connected", zap.String("address", opts.Addr))

	return &FeedCache{client: client, ttl: ttl}, nil
}

// Get returns the cached payload for key, or ErrMiss
func (fc *FeedCache) Get(ctx context.Context, key string) ([]byte, error) {
	if fc == nil {
		return nil, ErrMiss
	}
	data, err := fc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

// Set stores a payload under key with the cache TTL
func (fc *FeedCache) Set(ctx context.Context, key string, payload []byte) error {
	if fc == nil {
		return nil
	}
	return fc.client.Set(ctx, key, payload, fc.ttl).Err()
}

// InvalidateFeed drops all cached feed pages. Called after post
// mutations; the keyspace is small (one key per page variant) so a
// pattern scan is fine.
func (fc *FeedCache) InvalidateFeed(ctx context.Context) error {
	if fc == nil {
		return nil
	}
	iter := fc.client.Scan(ctx, 0, "feed:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return fc.client.Del(ctx, keys...).Err()
}

// Close closes the Redis connection gracefully
func (fc *FeedCache) Close() error {
	if fc == nil || fc.client == nil {
		return nil
	}
	return fc.client.Close()
}
