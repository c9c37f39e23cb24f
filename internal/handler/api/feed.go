package api

import (
	"net/http"
	"strconv"

	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/go-chi/chi/v5"
)

const (
	feedMaxAge   = 60
	searchMaxAge = 120
)

type rendered func(r *http.Request) ([]byte, string, error)

func serveRendered(render rendered, maxAge int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, etag, err := render(r)
		if err != nil {
			WriteServiceError(r.Context(), w, err)
			return
		}
		RespondCached(w, r, raw, etag, maxAge)
	}
}

// GetFeedHandler serves ?page=N, defaulting to the first page.
func GetFeedHandler(svc port.FeedReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				WriteError(r.Context(), w, http.StatusBadRequest, "Invalid page", err)
				return
			}
			page = n
		}
		serveRendered(func(r *http.Request) ([]byte, string, error) {
			return svc.Feed(r.Context(), page)
		}, feedMaxAge)(w, r)
	}
}

func GetPostHandler(svc port.FeedReader) http.HandlerFunc {
	return serveRendered(func(r *http.Request) ([]byte, string, error) {
		return svc.Post(r.Context(), chi.URLParam(r, "id"))
	}, feedMaxAge)
}

func SearchPostsHandler(svc port.FeedReader) http.HandlerFunc {
	return serveRendered(func(r *http.Request) ([]byte, string, error) {
		return svc.Search(r.Context(), r.URL.Query().Get("query"))
	}, searchMaxAge)
}

func GetLikesHandler(svc port.FeedReader) http.HandlerFunc {
	return serveRendered(func(r *http.Request) ([]byte, string, error) {
		return svc.Likes(r.Context(), chi.URLParam(r, "id"))
	}, feedMaxAge)
}

func GetCommentsHandler(svc port.FeedReader) http.HandlerFunc {
	return serveRendered(func(r *http.Request) ([]byte, string, error) {
		return svc.Comments(r.Context(), chi.URLParam(r, "id"))
	}, feedMaxAge)
}
