package mock

import (
	"context"
	"sync"
	"time"

	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

// UploadLedger records ledger calls.
type UploadLedger struct {
	mu sync.Mutex

	// stored values
	Recorded []model.Upload
	Orphaned []model.Upload

	// captured inputs
	AttachedDraft uuid.UUID
	AttachedPost  string
	OrphanedDraft uuid.UUID
	Before        time.Time

	// errors
	RecordErr error
	ListErr   error

	// call flags
	AttachedCalled bool
	OrphanedCalled bool
}

func (l *UploadLedger) Record(ctx context.Context, u *model.Upload) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.RecordErr != nil {
		return l.RecordErr
	}
	l.Recorded = append(l.Recorded, *u)
	return nil
}

func (l *UploadLedger) MarkAttached(ctx context.Context, draftID uuid.UUID, postID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.AttachedCalled = true
	l.AttachedDraft = draftID
	l.AttachedPost = postID
	return nil
}

func (l *UploadLedger) MarkOrphaned(ctx context.Context, draftID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.OrphanedCalled = true
	l.OrphanedDraft = draftID
	return nil
}

func (l *UploadLedger) ListOrphanedBefore(ctx context.Context, before time.Time) ([]model.Upload, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Before = before
	if l.ListErr != nil {
		return nil, l.ListErr
	}
	return l.Orphaned, nil
}
