package task

import (
	"context"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
)

// NoopDispatcher stands in for the queue when no Redis is configured. The
// backlog scan then runs as a dry run and only logs the posts it found.
type NoopDispatcher struct{}

var _ port.TaskDispatcher = (*NoopDispatcher)(nil)

func NewNoopDispatcher() *NoopDispatcher { return &NoopDispatcher{} }

func (d *NoopDispatcher) EnqueueBackfillPoster(ctx context.Context, postID string) error {
	logger.Infof(ctx, "🔎  dry run: post %s needs a poster", postID)
	return nil
}
