package api

import (
	"net/http"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/go-chi/chi/v5"
)

type AddCommentRequest struct {
	Post string `json:"post" validate:"required"`
	Text string `json:"text" validate:"required,max=1000"`
}

type EditCommentRequest struct {
	Post string `json:"post" validate:"required"`
	Text string `json:"text" validate:"required,max=1000"`
}

func DeletePostHandler(svc port.FeedWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.DeletePost(r.Context(), id); err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		logger.Infof(r.Context(), "✅  Successfully deleted post #%s", id)
	}
}

func ToggleLikeHandler(svc port.FeedWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.ToggleLike(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondJSON(r.Context(), w, http.StatusOK, res)
	}
}

func AddCommentHandler(svc port.FeedWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddCommentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := svc.AddComment(r.Context(), req.Post, req.Text)
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondJSON(r.Context(), w, http.StatusCreated, c)
	}
}

func EditCommentHandler(svc port.FeedWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EditCommentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := svc.EditComment(r.Context(), req.Post, chi.URLParam(r, "id"), req.Text)
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondJSON(r.Context(), w, http.StatusOK, c)
	}
}

// DeleteCommentHandler needs ?post= to invalidate the right thread.
func DeleteCommentHandler(svc port.FeedWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := r.URL.Query().Get("post")
		if postID == "" {
			WriteError(r.Context(), w, http.StatusBadRequest, "post is required", nil)
			return
		}
		if err := svc.DeleteComment(r.Context(), postID, chi.URLParam(r, "id")); err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
