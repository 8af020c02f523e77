package common

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"label-cabinet/backstage/internal/logging"
)

// RedisCacheService implements CacheInterface using Redis
type RedisCacheService struct {
	client *redis.Client
	ctx    context.Context
}

// Ensure RedisCacheService implements CacheInterface
var _ CacheInterface = (*RedisCacheService)(nil)

// NewRedisCacheService wraps an already connected client
func NewRedisCacheService(client *redis.Client) *RedisCacheService {
	return &RedisCacheService{
		client: client,
		ctx:    context.Background(),
	}
}

// Set stores a value in Redis with the given key and duration
func (r *RedisCacheService) Set(key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Redis cache: failed to marshal value", "key", key, "error", err)
		return
	}

	if err := r.client.Set(r.ctx, key, data, duration).Err(); err != nil {
		logging.Warn("Redis cache: failed to set key", "key", key, "error", err)
	}
}

func (r *RedisCacheService) raw(key string) ([]byte, bool) {
	data, err := r.client.Get(r.ctx, key).Bytes()
	if err == redis.Nil {
		recordLookup(key, false)
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis cache: failed to get key", "key", key, "error", err)
		return nil, false
	}
	recordLookup(key, true)
	return data, true
}

// Get retrieves a value from Redis by key
func (r *RedisCacheService) Get(key string) (interface{}, bool) {
	data, ok := r.raw(key)
	if !ok {
		return nil, false
	}

	var result interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		logging.Warn("Redis cache: failed to unmarshal value", "key", key, "error", err)
		return nil, false
	}

	return result, true
}

func (r *RedisCacheService) GetInto(key string, dest interface{}) bool {
	data, ok := r.raw(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logging.Warn("Redis cache: failed to unmarshal value", "key", key, "error", err)
		return false
	}
	return true
}

func (r *RedisCacheService) SetNX(key string, value interface{}, duration time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		return false
	}
	ok, err := r.client.SetNX(r.ctx, key, data, duration).Result()
	if err != nil {
		logging.Warn("Redis cache: failed to setnx key", "key", key, "error", err)
		return false
	}
	return ok
}

// Delete removes a value from Redis by key
func (r *RedisCacheService) Delete(key string) {
	if err := r.client.Del(r.ctx, key).Err(); err != nil {
		logging.Warn("Redis cache: failed to delete key", "key", key, "error", err)
	}
}

func (r *RedisCacheService) DeletePrefix(prefix string) {
	iter := r.client.Scan(r.ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(r.ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logging.Warn("Redis cache: failed to scan prefix", "prefix", prefix, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(r.ctx, keys...).Err(); err != nil {
		logging.Warn("Redis cache: failed to delete keys", "prefix", prefix, "error", err)
	}
}

// GetOrSet retrieves a value from cache, or loads it using the loader function if not found
func (r *RedisCacheService) GetOrSet(
	key string,
	duration time.Duration,
	loader func() (any, error),
) (interface{}, error) {
	if val, found := r.Get(key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	r.Set(key, val, duration)

	return val, nil
}

// Close closes the Redis connection
func (r *RedisCacheService) Close() error {
	return r.client.Close()
}
