package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/fhuszti/levigram-go/internal/backend"
	"github.com/fhuszti/levigram-go/internal/usecase/compose"
	"github.com/fhuszti/levigram-go/internal/usecase/feed"
	"github.com/fhuszti/levigram-go/internal/usecase/profile"
	"github.com/fhuszti/levigram-go/internal/usecase/push"
)

// statusFor maps use-case and backend errors onto an HTTP status and a client message.
func statusFor(err error) (int, string) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, compose.ErrUnauthenticated), errors.Is(err, backend.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, compose.ErrDraftNotFound):
		return http.StatusNotFound, "Draft not found"
	case errors.Is(err, compose.ErrMediaNotFound):
		return http.StatusNotFound, "Media not found"
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, compose.ErrNotPostAuthor):
		return http.StatusForbidden, "Only the author can edit this post"
	case errors.Is(err, compose.ErrSubmitInProgress):
		return http.StatusConflict, "A submission is already in progress"
	case errors.Is(err, compose.ErrDraftClosed):
		return http.StatusGone, "Draft is closed"
	case errors.Is(err, compose.ErrEmptyPost):
		return http.StatusBadRequest, "Add some text or media before posting"
	case errors.Is(err, compose.ErrIndexOutOfRange):
		return http.StatusBadRequest, "Media index out of range"
	case errors.Is(err, feed.ErrInvalidPage):
		return http.StatusBadRequest, "Invalid page"
	case errors.Is(err, profile.ErrEmptyProfile):
		return http.StatusBadRequest, "Nothing to update"
	case errors.Is(err, profile.ErrUnsupportedPicture):
		return http.StatusUnsupportedMediaType, "Profile picture must be an image"
	case errors.Is(err, push.ErrInvalidSubscription):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, compose.ErrUploadFailed), errors.Is(err, profile.ErrUploadFailed):
		return http.StatusBadGateway, "Media upload failed"
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream timed out"
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			msg := apiErr.Message
			if msg == "" {
				msg = http.StatusText(apiErr.Status)
			}
			return apiErr.Status, msg
		}
		return http.StatusBadGateway, "Upstream error"
	case errors.Is(err, backend.ErrMalformedResponse):
		return http.StatusBadGateway, "Upstream error"
	}
	return http.StatusInternalServerError, "Internal error"
}

// WriteServiceError writes err with the status it maps to.
func WriteServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	WriteError(ctx, w, status, msg, err)
}
