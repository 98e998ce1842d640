package genclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "civics:distractors:"

// SharedCache is a second cache tier consulted after the in-process cache
// misses. Implementations may share results across processes.
type SharedCache interface {
	Get(ctx context.Context, key string) (entry SharedEntry, ok bool, err error)
	Set(ctx context.Context, key string, entry SharedEntry, ttl time.Duration) error
}

// SharedEntry is a cached result as stored in the shared tier. StoredAt is
// when the result was first produced; the local copy ages from it.
type SharedEntry struct {
	Distractors []string  `json:"distractors"`
	Confidence  float64   `json:"confidence"`
	StoredAt    time.Time `json:"stored_at"`
}

// RedisCache is a SharedCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// NewRedisCache wraps a connected client.
func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, logger: logger.Named("redis")}
}

func (r *RedisCache) Get(ctx context.Context, key string) (SharedEntry, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return SharedEntry{}, false, nil
	}
	if err != nil {
		return SharedEntry{}, false, fmt.Errorf("redis get: %w", err)
	}

	var e SharedEntry
	if err := json.Unmarshal(data, &e); err != nil {
		r.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		return SharedEntry{}, false, nil
	}
	if e.Confidence <= 0 || len(e.Distractors) == 0 {
		return SharedEntry{}, false, nil
	}
	return e, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, entry SharedEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
