package port

import (
	"context"
	"time"

	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

// UploadLedger tracks every object published on behalf of a draft.
type UploadLedger interface {
	Record(ctx context.Context, u *model.Upload) error
	MarkAttached(ctx context.Context, draftID uuid.UUID, postID string) error
	MarkOrphaned(ctx context.Context, draftID uuid.UUID) error
	ListOrphanedBefore(ctx context.Context, before time.Time) ([]model.Upload, error)
}
