package mock

import (
	"context"
	"sync"
)

// PosterBackfiller records backfill calls.
type PosterBackfiller struct {
	mu sync.Mutex

	// captured inputs
	PostIDs []string

	// errors
	Err error
}

func (b *PosterBackfiller) BackfillPost(ctx context.Context, postID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.PostIDs = append(b.PostIDs, postID)
	return b.Err
}

func (b *PosterBackfiller) Called() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.PostIDs) > 0
}
