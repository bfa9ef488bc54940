// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache TTLs per tier. Suburb resolutions are stable for days; search
// results for a couple of them; route previews go stale in minutes.
const (
	SearchCacheTTL  = 48 * time.Hour
	SuburbCacheTTL  = 72 * time.Hour
	PreviewCacheTTL = 5 * time.Minute
)

// HotCache is the hot tier: key to JSON string with per-key TTL.
type HotCache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetWithExpiry stores value under key with the given TTL.
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error

	// ScanBySuffix returns all keys ending with suffix.
	ScanBySuffix(ctx context.Context, suffix string) ([]string, error)

	// Delete removes a key.
	Delete(ctx context.Context, key string) error
}

// RedisCache implements HotCache on a Redis instance.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("getting key %q: %w", key, err)
	}

	return val, true, nil
}

func (c *RedisCache) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("setting key %q: %w", key, err)
	}

	return nil
}

func (c *RedisCache) ScanBySuffix(ctx context.Context, suffix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)

	for {
		batch, next, err := c.client.Scan(ctx, cursor, "*"+suffix, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning for suffix %q: %w", suffix, err)
		}

		keys = append(keys, batch...)

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}

	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// hashKey derives a fixed-length cache key component from its parts.
func hashKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))

	return hex.EncodeToString(sum[:16])
}

// cacheRead loads and unmarshals a cached JSON value into dest. Any
// failure, including a malformed payload, counts as a miss: this
// pipeline recomputes rather than fail on cache trouble.
func cacheRead(ctx context.Context, cache HotCache, key string, dest any) bool {
	raw, ok, err := cache.Get(ctx, key)
	if err != nil {
		log.Printf("cache read %s: %v", key, err)

		return false
	}

	if !ok {
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.Printf("cache payload %s unparseable, treating as miss: %v", key, err)

		return false
	}

	return true
}

// cacheWrite marshals and stores value. Write failures are logged and
// swallowed; they never fail the resolution that triggered them.
func cacheWrite(ctx context.Context, cache HotCache, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache marshal %s: %v", key, err)

		return
	}

	if err := cache.SetWithExpiry(ctx, key, string(data), ttl); err != nil {
		log.Printf("cache write %s: %v", key, err)
	}
}
