package cache

import (
	"context"
	"time"

	"github.com/fhuszti/levigram-go/internal/port"
)

type NoopCache struct{}

// compile-time check: *NoopCache must satisfy port.Cache
var _ port.Cache = (*NoopCache)(nil)

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) GetEntry(ctx context.Context, key string) ([]byte, string, error) {
	return nil, "", nil // always cache miss
}

func (n *NoopCache) SetEntry(ctx context.Context, key string, data []byte, etag string, ttl time.Duration) {
}

func (n *NoopCache) Invalidate(ctx context.Context, keys ...string) error { return nil }

func (n *NoopCache) Tag(ctx context.Context, key string, ttl time.Duration, tags ...string) error {
	return nil
}

func (n *NoopCache) Tagged(ctx context.Context, tag string) ([]string, error) { return nil, nil }
