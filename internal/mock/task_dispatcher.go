package mock

import (
	"context"
	"sync"
)

// TaskDispatcher records enqueued tasks.
type TaskDispatcher struct {
	mu sync.Mutex

	// captured inputs
	BackfillPostIDs []string

	// errors
	BackfillErr error

	// call flags
	BackfillCalled bool
}

func (d *TaskDispatcher) EnqueueBackfillPoster(ctx context.Context, postID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.BackfillCalled = true
	if d.BackfillErr != nil {
		return d.BackfillErr
	}
	d.BackfillPostIDs = append(d.BackfillPostIDs, postID)
	return nil
}
