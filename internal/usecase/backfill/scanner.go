package backfill

import (
	"context"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
)

type backlogScannerSrv struct {
	posts port.PostsAPI
	tasks port.TaskDispatcher
}

// compile-time check: *backlogScannerSrv must satisfy port.BacklogScanner
var _ port.BacklogScanner = (*backlogScannerSrv)(nil)

func NewBacklogScanner(posts port.PostsAPI, tasks port.TaskDispatcher) port.BacklogScanner {
	return &backlogScannerSrv{posts, tasks}
}

// ScanFeed walks the feed from page 1 and enqueues one backfill task per post
// missing a video poster. It returns the number of tasks enqueued.
func (s *backlogScannerSrv) ScanFeed(ctx context.Context, maxPages int) (int, error) {
	enqueued := 0
	for page := 1; page <= maxPages; page++ {
		p, err := s.posts.GetFeed(ctx, page)
		if err != nil {
			return enqueued, err
		}
		for _, post := range p.Posts {
			if !post.NeedsPosterBackfill() {
				continue
			}
			logger.Infof(ctx, "starting poster backfill for post #%s", post.ID)
			if err := s.tasks.EnqueueBackfillPoster(ctx, post.ID); err != nil {
				logger.Warnf(ctx, "failed to enqueue backfill task for post #%s: %v", post.ID, err)
				continue
			}
			enqueued++
		}
		if !p.HasMore {
			break
		}
	}

	if enqueued == 0 {
		logger.Info(ctx, "no posts found to backfill")
	}
	return enqueued, nil
}
