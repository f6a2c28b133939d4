package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store caches JSON-encodable values under string keys
type Store interface {
	// Get decodes the cached value into dst and reports whether it was found
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is a Store backed by the in-process Cache
type MemoryStore struct {
	cache *Cache
}

// NewMemoryStore creates a process-local Store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: New()}
}

func (s *MemoryStore) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := s.cache.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.cache.Set(key, raw, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Sweep drops expired entries and returns how many were removed
func (s *MemoryStore) Sweep() int {
	return s.cache.Sweep()
}

// RedisStore is a Store shared across processes through Redis
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

// ServicePrefix namespaces the keys shared by the server and the CLI
const ServicePrefix = "outreach:"

// NewRedisStore creates a Store whose keys are namespaced by prefix
func NewRedisStore(rdb redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}
