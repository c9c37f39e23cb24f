package port

import (
	"context"
	"time"
)

// Fetcher produces the value to render on a cache miss.
type Fetcher func(ctx context.Context) (any, error)

// HTTPRenderer returns the JSON representation of a read together with an ETag
// derived from it, serving it from the cache when possible.
type HTTPRenderer interface {
	Render(ctx context.Context, key string, ttl time.Duration, fetch Fetcher) ([]byte, string, error)
}
