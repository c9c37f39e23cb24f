package port

import (
	"context"
	"time"
)

// Cache stores rendered JSON documents next to their ETag.
type Cache interface {
	// GetEntry returns nil data on a miss.
	GetEntry(ctx context.Context, key string) ([]byte, string, error)
	SetEntry(ctx context.Context, key string, data []byte, etag string, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string) error
	// Tag records that the entry at key renders data owned by each tag.
	Tag(ctx context.Context, key string, ttl time.Duration, tags ...string) error
	// Tagged lists the entry keys recorded under tag.
	Tagged(ctx context.Context, tag string) ([]string, error)
}
