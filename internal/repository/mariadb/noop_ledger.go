package mariadb

import (
	"context"
	"time"

	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

// NoopLedger is used when no database is configured.
type NoopLedger struct{}

// compile-time check: *NoopLedger must satisfy port.UploadLedger
var _ port.UploadLedger = (*NoopLedger)(nil)

func NewNoopLedger() *NoopLedger {
	return &NoopLedger{}
}

func (n *NoopLedger) Record(ctx context.Context, u *model.Upload) error { return nil }

func (n *NoopLedger) MarkAttached(ctx context.Context, draftID uuid.UUID, postID string) error {
	return nil
}

func (n *NoopLedger) MarkOrphaned(ctx context.Context, draftID uuid.UUID) error { return nil }

func (n *NoopLedger) ListOrphanedBefore(ctx context.Context, before time.Time) ([]model.Upload, error) {
	return nil, nil
}
