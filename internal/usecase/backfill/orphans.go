package backfill

import (
	"context"
	"time"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
)

// ReportOrphans logs the uploads of failed submissions older than age and returns them.
func ReportOrphans(ctx context.Context, ledger port.UploadLedger, age time.Duration) ([]model.Upload, error) {
	orphans, err := ledger.ListOrphanedBefore(ctx, time.Now().Add(-age))
	if err != nil {
		return nil, err
	}
	for _, u := range orphans {
		logger.Warnf(ctx, "⚠️  orphaned upload %s (%s) from draft %s", u.PublicID, u.URL, u.DraftID)
	}
	if len(orphans) == 0 {
		logger.Info(ctx, "no orphaned uploads")
	}
	return orphans, nil
}
