package model

import (
	"time"

	"github.com/fhuszti/levigram-go/internal/uuid"
)

type UploadStatus string

const (
	UploadStatusUploaded UploadStatus = "uploaded"
	UploadStatusAttached UploadStatus = "attached"
	UploadStatusOrphaned UploadStatus = "orphaned"
)

// Upload is one published object recorded in the upload ledger.
type Upload struct {
	ID           uuid.UUID    `json:"id"`
	DraftID      uuid.UUID    `json:"draft_id"`
	PublicID     string       `json:"public_id"`
	URL          string       `json:"url"`
	ResourceType string       `json:"resource_type"`
	Folder       string       `json:"folder"`
	Status       UploadStatus `json:"status"`
	PostID       *string      `json:"post_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
