package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
)

type httpRenderer struct {
	cache port.Cache
}

// compile-time check: *httpRenderer must satisfy port.HTTPRenderer
var _ port.HTTPRenderer = (*httpRenderer)(nil)

// NewHTTPRenderer creates a new HTTPRenderer implementation.
func NewHTTPRenderer(cache port.Cache) port.HTTPRenderer {
	return &httpRenderer{cache: cache}
}

// Render returns the cached JSON document stored under key, or runs fetch,
// encodes its result and caches it for ttl. The ETag is a quoted CRC32 of the body.
func (r *httpRenderer) Render(ctx context.Context, key string, ttl time.Duration, fetch port.Fetcher) ([]byte, string, error) {
	raw, etag, err := r.cache.GetEntry(ctx, key)
	if err != nil {
		logger.Warnf(ctx, "⚠️  cache read failed for %q: %v", key, err)
	} else if raw != nil && etag != "" {
		return raw, etag, nil
	}

	out, err := fetch(ctx)
	if err != nil {
		return nil, "", err
	}

	raw, err = json.Marshal(out)
	if err != nil {
		return nil, "", fmt.Errorf("json marshal: %w", err)
	}

	etag = ETag(raw)
	r.cache.SetEntry(ctx, key, raw, etag, ttl)

	return raw, etag, nil
}

// ETag derives the quoted entity tag of a JSON body.
func ETag(raw []byte) string {
	return fmt.Sprintf("\"%08x\"", crc32.ChecksumIEEE(raw))
}
