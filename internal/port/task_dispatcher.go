package port

import "context"

// TaskDispatcher enqueues asynchronous tasks related to post media.
type TaskDispatcher interface {
	EnqueueBackfillPoster(ctx context.Context, postID string) error
}
