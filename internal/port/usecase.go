package port

import (
	"context"
	"io"
	"time"

	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

type UUIDGen func() uuid.UUID

// DraftComposer drives the compose and edit forms: selection, preview and submission.
// The draft owner is the authenticated user carried by the context.
type DraftComposer interface {
	Open(ctx context.Context, in OpenDraftInput) (DraftView, error)
	Get(ctx context.Context, id uuid.UUID) (DraftView, error)
	Ingest(ctx context.Context, in IngestInput) (DraftView, error)
	RemoveMedia(ctx context.Context, id uuid.UUID, index int) (DraftView, error)
	SetActive(ctx context.Context, id uuid.UUID, index int) (DraftView, error)
	SetContent(ctx context.Context, id uuid.UUID, content string) (DraftView, error)
	Submit(ctx context.Context, id uuid.UUID) (model.Post, error)
	Discard(ctx context.Context, id uuid.UUID) error
	PreviewURL(ctx context.Context, in PreviewInput) (string, error)
}
type OpenDraftInput struct {
	PostID string
}
type IngestFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}
type IngestInput struct {
	DraftID  uuid.UUID
	Files    []IngestFile
	SaveData bool
}
type PreviewInput struct {
	DraftID uuid.UUID
	MediaID uuid.UUID
	Poster  bool
}
type MediaView struct {
	ID            uuid.UUID       `json:"id"`
	Kind          model.MediaKind `json:"kind"`
	URL           string          `json:"url"`
	Poster        string          `json:"poster,omitempty"`
	Local         bool            `json:"local"`
	PosterPending bool            `json:"poster_pending,omitempty"`
}
type DraftView struct {
	ID        uuid.UUID   `json:"id"`
	PostID    string      `json:"post_id,omitempty"`
	State     string      `json:"state"`
	Content   string      `json:"content"`
	Active    int         `json:"active"`
	Media     []MediaView `json:"media"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// FeedReader serves cached, display-ready reads as JSON with an ETag.
type FeedReader interface {
	Feed(ctx context.Context, page int) ([]byte, string, error)
	Post(ctx context.Context, id string) ([]byte, string, error)
	Search(ctx context.Context, query string) ([]byte, string, error)
	Likes(ctx context.Context, postID string) ([]byte, string, error)
	Comments(ctx context.Context, postID string) ([]byte, string, error)
}

// FeedWriter performs mutations and invalidates the cached reads they affect.
type FeedWriter interface {
	CreatePost(ctx context.Context, in model.PostPayload) (model.Post, error)
	EditPost(ctx context.Context, id string, in model.PostPayload) (model.Post, error)
	DeletePost(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id string) (model.LikeToggle, error)
	AddComment(ctx context.Context, postID, text string) (model.Comment, error)
	EditComment(ctx context.Context, postID, commentID, text string) (model.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
}

// ProfileUpdater changes the username and optionally the profile picture.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (model.User, error)
}
type UpdateProfileInput struct {
	Username string
	Picture  *IngestFile
	SaveData bool
}

// PushSubscriber validates and forwards Web Push subscriptions.
type PushSubscriber interface {
	Subscribe(ctx context.Context, sub model.PushSubscription) error
	VAPIDPublicKey() string
}

// PosterBackfiller fills in missing posters of a published post.
type PosterBackfiller interface {
	BackfillPost(ctx context.Context, postID string) error
}

// BacklogScanner enqueues backfill tasks for posts that need them.
type BacklogScanner interface {
	ScanFeed(ctx context.Context, maxPages int) (int, error)
}
