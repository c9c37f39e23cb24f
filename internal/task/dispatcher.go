package task

import (
	"context"
	"errors"
	"time"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/hibiken/asynq"
)

const (
	backfillMaxRetry  = 5
	backfillRetention = 24 * time.Hour
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Dispatcher struct {
	client enqueuer
}

// compile-time check
var _ port.TaskDispatcher = (*Dispatcher)(nil)

func NewDispatcher(addr, password string) *Dispatcher {
	c := asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password})
	return &Dispatcher{client: c}
}

// EnqueueBackfillPoster enqueues at most one pending task per post.
func (d *Dispatcher) EnqueueBackfillPoster(ctx context.Context, postID string) error {
	t, err := NewBackfillPosterTask(postID)
	if err != nil {
		return err
	}
	_, err = d.client.EnqueueContext(ctx, t,
		asynq.TaskID("backfill-poster:"+postID),
		asynq.MaxRetry(backfillMaxRetry),
		asynq.Retention(backfillRetention),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Debugf(ctx, "backfill for post %s already queued", postID)
		return nil
	}
	return err
}
