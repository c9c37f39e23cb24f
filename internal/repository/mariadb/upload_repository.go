package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

type UploadRepository struct {
	db *sql.DB
}

// compile-time check: *UploadRepository must satisfy port.UploadLedger
var _ port.UploadLedger = (*UploadRepository)(nil)

func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) Record(ctx context.Context, u *model.Upload) error {
	logger.Debugf(ctx, "recording upload %q for draft #%s...", u.PublicID, u.DraftID)

	const query = `
      INSERT INTO uploads
        (id, draft_id, public_id, url, resource_type, folder, status)
      VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.DraftID, u.PublicID, u.URL,
		u.ResourceType, u.Folder, u.Status,
	)
	if err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

func (r *UploadRepository) MarkAttached(ctx context.Context, draftID uuid.UUID, postID string) error {
	logger.Debugf(ctx, "attaching uploads of draft #%s to post %q...", draftID, postID)

	const query = `
      UPDATE uploads
      SET status = ?, post_id = ?
      WHERE draft_id = ? AND status = ?
    `
	_, err := r.db.ExecContext(ctx, query,
		model.UploadStatusAttached, postID,
		draftID, model.UploadStatusUploaded,
	)
	if err != nil {
		return fmt.Errorf("mark uploads attached: %w", err)
	}
	return nil
}

func (r *UploadRepository) MarkOrphaned(ctx context.Context, draftID uuid.UUID) error {
	logger.Debugf(ctx, "orphaning uploads of draft #%s...", draftID)

	const query = `
      UPDATE uploads
      SET status = ?
      WHERE draft_id = ? AND status = ?
    `
	_, err := r.db.ExecContext(ctx, query,
		model.UploadStatusOrphaned,
		draftID, model.UploadStatusUploaded,
	)
	if err != nil {
		return fmt.Errorf("mark uploads orphaned: %w", err)
	}
	return nil
}

func (r *UploadRepository) ListOrphanedBefore(ctx context.Context, before time.Time) ([]model.Upload, error) {
	const query = `
      SELECT id, draft_id, public_id, url, resource_type, folder, status, post_id, created_at, updated_at
      FROM uploads
      WHERE status = ? AND updated_at < ?
      ORDER BY updated_at
    `
	rows, err := r.db.QueryContext(ctx, query, model.UploadStatusOrphaned, before)
	if err != nil {
		return nil, fmt.Errorf("list orphaned uploads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Upload
	for rows.Next() {
		var u model.Upload
		if err := rows.Scan(
			&u.ID, &u.DraftID, &u.PublicID, &u.URL,
			&u.ResourceType, &u.Folder, &u.Status, &u.PostID,
			&u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan orphaned upload: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
