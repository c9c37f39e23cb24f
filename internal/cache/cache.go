package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

// compile-time check: *Cache must satisfy port.Cache
var _ port.Cache = (*Cache)(nil)

func NewCache(addr, password string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &Cache{client: rdb}
}

func (c *Cache) GetEntry(ctx context.Context, key string) ([]byte, string, error) {
	logger.Debugf(ctx, "getting entry %q in cache...", key)

	vals, err := c.client.MGet(ctx, getCacheKey(key, false), getCacheKey(key, true)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("redis get failed: %w", err)
	}

	data, okData := vals[0].(string)
	etag, okEtag := vals[1].(string)
	if !okData || !okEtag || etag == "" {
		return nil, "", nil // cache miss
	}
	return []byte(data), etag, nil
}

func (c *Cache) SetEntry(ctx context.Context, key string, data []byte, etag string, ttl time.Duration) {
	logger.Debugf(ctx, "creating entry %q in cache, valid for %s...", key, ttl)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, getCacheKey(key, false), data, ttl)
		pipe.Set(ctx, getCacheKey(key, true), etag, ttl)
		return nil
	})
	if err != nil {
		logger.Warnf(ctx, "⚠️  redis set failed for %q: %v", key, err)
	}
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	logger.Debugf(ctx, "invalidating cache entries %v...", keys)

	all := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		all = append(all, getCacheKey(k, false), getCacheKey(k, true))
	}
	if err := c.client.Del(ctx, all...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func (c *Cache) Tag(ctx context.Context, key string, ttl time.Duration, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range tags {
			pipe.SAdd(ctx, getTagKey(t), key)
			pipe.Expire(ctx, getTagKey(t), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis tag failed: %w", err)
	}
	return nil
}

func (c *Cache) Tagged(ctx context.Context, tag string) ([]string, error) {
	keys, err := c.client.SMembers(ctx, getTagKey(tag)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers failed: %w", err)
	}
	return keys, nil
}

func getTagKey(tag string) string {
	return "tag:levigram:" + tag
}

func getCacheKey(key string, etag bool) string {
	if etag {
		return "etag:levigram:" + key
	}
	return "levigram:" + key
}
