package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/fhuszti/levigram-go/internal/backend"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/task"
	"github.com/fhuszti/levigram-go/internal/validation"
	"github.com/hibiken/asynq"
)

// BackfillPosterHandler handles a backfill-poster task.
// It validates the incoming payload and delegates the call to the service.
// A post that no longer exists is not retried.
func BackfillPosterHandler(ctx context.Context, p task.BackfillPosterPayload, svc port.PosterBackfiller) error {
	if err := validation.ValidateStruct(p); err != nil {
		logger.Errorf(ctx, "❌  Payload validation failed: %v", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if err := svc.BackfillPost(ctx, p.PostID); err != nil {
		logger.Errorf(ctx, "❌  Failed to backfill posters of post #%s: %v", p.PostID, err)
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	logger.Infof(ctx, "✅  Successfully backfilled posters of post #%s", p.PostID)
	return nil
}
