package cache

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func makeTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	// spin up in-memory Redis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	// point the real client at it
	rdb := redis.NewClient(&redis.Options{
		Addr:     mr.Addr(),
		Password: "",
		DB:       0,
	})
	return &Cache{client: rdb}, mr
}

func TestGetSetInvalidateEntry(t *testing.T) {
	c, mr := makeTestCache(t)
	ctx := context.Background()
	key := "feed:1"

	// 1) Cache miss
	data, etag, err := c.GetEntry(ctx, key)
	if err != nil {
		t.Fatalf("GetEntry miss: %v", err)
	}
	if data != nil || etag != "" {
		t.Errorf("GetEntry miss: got %q/%q; want nil", data, etag)
	}

	// 2) Set + Get
	c.SetEntry(ctx, key, []byte(`{"posts":[]}`), `"deadbeef"`, time.Hour)
	if ttl := mr.TTL(getCacheKey(key, false)); ttl < 59*time.Minute || ttl > time.Hour {
		t.Errorf("redis TTL = %v; want ~1h", ttl)
	}
	if ttl := mr.TTL(getCacheKey(key, true)); ttl < 59*time.Minute || ttl > time.Hour {
		t.Errorf("etag TTL = %v; want ~1h", ttl)
	}
	data, etag, err = c.GetEntry(ctx, key)
	if err != nil {
		t.Fatalf("GetEntry hit: %v", err)
	}
	if string(data) != `{"posts":[]}` || etag != `"deadbeef"` {
		t.Errorf("GetEntry hit: got %s/%s", data, etag)
	}

	// 3) Invalidate + miss again
	if err := c.Invalidate(ctx, key, "post:unknown"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists(getCacheKey(key, false)) || mr.Exists(getCacheKey(key, true)) {
		t.Error("keys still present after Invalidate")
	}
	if data, _, _ := c.GetEntry(ctx, key); data != nil {
		t.Errorf("after Invalidate, GetEntry = %s; want nil", data)
	}
}

func TestGetEntry_MissingEtagIsMiss(t *testing.T) {
	c, mr := makeTestCache(t)
	ctx := context.Background()

	if err := mr.Set(getCacheKey("post:1", false), `{"_id":"1"}`); err != nil {
		t.Fatalf("manually set cache: %v", err)
	}

	data, etag, err := c.GetEntry(ctx, "post:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil || etag != "" {
		t.Errorf("expected miss without etag, got %s/%s", data, etag)
	}
}

func TestGetEntry_RedisError(t *testing.T) {
	c, mr := makeTestCache(t)
	ctx := context.Background()

	// Simulate Redis unreachable
	mr.Close()

	data, _, err := c.GetEntry(ctx, "feed:1")
	if data != nil {
		t.Errorf("expected nil on Redis error, got %s", data)
	}
	if err == nil || !strings.Contains(err.Error(), "redis get failed") {
		t.Errorf("expected redis get failed error, got %v", err)
	}
}

func TestInvalidate_RedisError(t *testing.T) {
	c, mr := makeTestCache(t)
	mr.Close()

	err := c.Invalidate(context.Background(), "feed:1")
	if err == nil || !strings.Contains(err.Error(), "redis del failed") {
		t.Errorf("expected redis del failed error, got %v", err)
	}
}

func TestInvalidate_NoKeys(t *testing.T) {
	c, mr := makeTestCache(t)
	mr.Close()

	if err := c.Invalidate(context.Background()); err != nil {
		t.Errorf("expected nil without keys, got %v", err)
	}
}

func TestGetCacheKey_Etag(t *testing.T) {
	if got := getCacheKey("post:42", true); got != "etag:levigram:post:42" {
		t.Errorf("getCacheKey(true) = %q", got)
	}
	if got := getCacheKey("post:42", false); got != "levigram:post:42" {
		t.Errorf("getCacheKey() = %q", got)
	}
}

func TestTagAndTagged(t *testing.T) {
	c, mr := makeTestCache(t)
	ctx := context.Background()

	if err := c.Tag(ctx, "feed:1", time.Hour, "pages-of:p1", "pages-of:p2"); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if err := c.Tag(ctx, "feed:2", time.Hour, "pages-of:p1"); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if ttl := mr.TTL(getTagKey("pages-of:p1")); ttl < 59*time.Minute || ttl > time.Hour {
		t.Errorf("tag TTL = %v; want ~1h", ttl)
	}

	keys, err := c.Tagged(ctx, "pages-of:p1")
	if err != nil {
		t.Fatalf("Tagged: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "feed:1" || keys[1] != "feed:2" {
		t.Errorf("Tagged = %v; want [feed:1 feed:2]", keys)
	}
	if keys, _ := c.Tagged(ctx, "pages-of:unknown"); len(keys) != 0 {
		t.Errorf("expected no keys for an unknown tag, got %v", keys)
	}

	mr.Close()
	if _, err := c.Tagged(ctx, "pages-of:p1"); err == nil || !strings.Contains(err.Error(), "redis smembers failed") {
		t.Errorf("expected redis smembers failed error, got %v", err)
	}
}
