package mock

import (
	"context"
	"sync"
	"time"
)

// Cache implements cache behaviour for tests.
type Cache struct {
	mu sync.Mutex

	// stored values
	Data []byte
	Etag string

	// captured inputs
	SetKey          string
	SetTTL          time.Duration
	InvalidatedKeys []string
	// Tags maps a tag to the keys recorded under it.
	Tags map[string][]string

	// errors
	GetErr        error
	InvalidateErr error
	TaggedErr     error

	// call flags
	GetCalled        bool
	SetCalled        bool
	InvalidateCalled bool
}

func (c *Cache) GetEntry(ctx context.Context, key string) ([]byte, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalled = true
	if c.GetErr != nil {
		return nil, "", c.GetErr
	}
	return c.Data, c.Etag, nil
}

func (c *Cache) SetEntry(ctx context.Context, key string, data []byte, etag string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetCalled = true
	c.SetKey = key
	c.SetTTL = ttl
	c.Data = data
	c.Etag = etag
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InvalidateCalled = true
	c.InvalidatedKeys = append(c.InvalidatedKeys, keys...)
	return c.InvalidateErr
}

func (c *Cache) Tag(ctx context.Context, key string, ttl time.Duration, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Tags == nil {
		c.Tags = map[string][]string{}
	}
	for _, t := range tags {
		c.Tags[t] = append(c.Tags[t], key)
	}
	return nil
}

func (c *Cache) Tagged(ctx context.Context, tag string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TaggedErr != nil {
		return nil, c.TaggedErr
	}
	return c.Tags[tag], nil
}
