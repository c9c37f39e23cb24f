package compose

import (
	"errors"

	"github.com/fhuszti/levigram-go/internal/carousel"
)

var (
	ErrDraftNotFound    = errors.New("draft not found")
	ErrDraftClosed      = errors.New("draft is closed")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrEmptyPost        = errors.New("post needs content or media")
	ErrUploadFailed     = errors.New("media upload failed")
	ErrMediaNotFound    = errors.New("media not found in draft")
	ErrNotPostAuthor    = errors.New("only the author can edit this post")
	ErrIndexOutOfRange  = carousel.ErrIndexOutOfRange
)
