package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fhuszti/levigram-go/internal/backend"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/usecase/feed"
	"github.com/go-chi/chi/v5"
)

type mockReader struct {
	raw   []byte
	etag  string
	err   error
	page  int
	id    string
	query string
}

func (m *mockReader) Feed(ctx context.Context, page int) ([]byte, string, error) {
	m.page = page
	return m.raw, m.etag, m.err
}
func (m *mockReader) Post(ctx context.Context, id string) ([]byte, string, error) {
	m.id = id
	return m.raw, m.etag, m.err
}
func (m *mockReader) Search(ctx context.Context, query string) ([]byte, string, error) {
	m.query = query
	return m.raw, m.etag, m.err
}
func (m *mockReader) Likes(ctx context.Context, postID string) ([]byte, string, error) {
	m.id = postID
	return m.raw, m.etag, m.err
}
func (m *mockReader) Comments(ctx context.Context, postID string) ([]byte, string, error) {
	m.id = postID
	return m.raw, m.etag, m.err
}

func withURLParam(req *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetFeedHandler(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		ifNoneMatch string
		err         error
		wantStatus  int
		wantPage    int
	}{
		{"default page", "/feed", "", nil, http.StatusOK, 1},
		{"explicit page", "/feed?page=3", "", nil, http.StatusOK, 3},
		{"not modified", "/feed", `"abc"`, nil, http.StatusNotModified, 1},
		{"bad page", "/feed?page=x", "", nil, http.StatusBadRequest, 0},
		{"invalid page", "/feed?page=0", "", feed.ErrInvalidPage, http.StatusBadRequest, 0},
		{"unauthenticated", "/feed", "", backend.ErrUnauthenticated, http.StatusUnauthorized, 1},
		{"upstream down", "/feed", "", &backend.APIError{Status: 503}, http.StatusBadGateway, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockReader{raw: []byte(`{"posts":[]}`), etag: `"abc"`, err: tc.err}
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.ifNoneMatch != "" {
				req.Header.Set("If-None-Match", tc.ifNoneMatch)
			}
			rec := httptest.NewRecorder()

			GetFeedHandler(svc)(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantPage != 0 && svc.page != tc.wantPage {
				t.Errorf("page = %d; want %d", svc.page, tc.wantPage)
			}
			switch tc.wantStatus {
			case http.StatusOK:
				if rec.Header().Get("ETag") != `"abc"` || rec.Body.String() != `{"posts":[]}` {
					t.Errorf("etag %q body %q", rec.Header().Get("ETag"), rec.Body.String())
				}
				if !strings.Contains(rec.Header().Get("Cache-Control"), "private") {
					t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
				}
			case http.StatusNotModified:
				if rec.Body.Len() != 0 {
					t.Errorf("304 must have no body, got %q", rec.Body.String())
				}
			}
		})
	}
}

func TestPostReadHandlers(t *testing.T) {
	svc := &mockReader{raw: []byte(`{}`), etag: `"e"`}

	rec := httptest.NewRecorder()
	GetPostHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/posts/p1", nil), "id", "p1"))
	if rec.Code != http.StatusOK || svc.id != "p1" {
		t.Errorf("post: status %d id %q", rec.Code, svc.id)
	}

	rec = httptest.NewRecorder()
	GetLikesHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/posts/p2/likes", nil), "id", "p2"))
	if rec.Code != http.StatusOK || svc.id != "p2" {
		t.Errorf("likes: status %d id %q", rec.Code, svc.id)
	}

	rec = httptest.NewRecorder()
	GetCommentsHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/posts/p3/comments", nil), "id", "p3"))
	if rec.Code != http.StatusOK || svc.id != "p3" {
		t.Errorf("comments: status %d id %q", rec.Code, svc.id)
	}

	rec = httptest.NewRecorder()
	SearchPostsHandler(svc)(rec, httptest.NewRequest(http.MethodGet, "/posts/search?query=cats", nil))
	if rec.Code != http.StatusOK || svc.query != "cats" {
		t.Errorf("search: status %d query %q", rec.Code, svc.query)
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "max-age=120") {
		t.Errorf("search Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}

	svc.err = backend.ErrNotFound
	rec = httptest.NewRecorder()
	GetPostHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/posts/gone", nil), "id", "gone"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing post: status %d", rec.Code)
	}
}

type mockWriter struct {
	err     error
	calls   []string
	postID  string
	text    string
	toggle  model.LikeToggle
	comment model.Comment
}

func (m *mockWriter) CreatePost(ctx context.Context, in model.PostPayload) (model.Post, error) {
	m.calls = append(m.calls, "create")
	return model.Post{}, m.err
}
func (m *mockWriter) EditPost(ctx context.Context, id string, in model.PostPayload) (model.Post, error) {
	m.calls = append(m.calls, "edit")
	return model.Post{}, m.err
}
func (m *mockWriter) DeletePost(ctx context.Context, id string) error {
	m.calls, m.postID = append(m.calls, "delete"), id
	return m.err
}
func (m *mockWriter) ToggleLike(ctx context.Context, id string) (model.LikeToggle, error) {
	m.calls, m.postID = append(m.calls, "like"), id
	return m.toggle, m.err
}
func (m *mockWriter) AddComment(ctx context.Context, postID, text string) (model.Comment, error) {
	m.calls, m.postID, m.text = append(m.calls, "add"), postID, text
	return m.comment, m.err
}
func (m *mockWriter) EditComment(ctx context.Context, postID, commentID, text string) (model.Comment, error) {
	m.calls, m.postID, m.text = append(m.calls, "edit-comment"), postID, text
	return m.comment, m.err
}
func (m *mockWriter) DeleteComment(ctx context.Context, postID, commentID string) error {
	m.calls, m.postID = append(m.calls, "delete-comment"), postID
	return m.err
}

func TestMutationHandlers(t *testing.T) {
	t.Run("delete post", func(t *testing.T) {
		svc := &mockWriter{}
		rec := httptest.NewRecorder()
		DeletePostHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/posts/p1", nil), "id", "p1"))
		if rec.Code != http.StatusNoContent || svc.postID != "p1" {
			t.Errorf("status %d post %q", rec.Code, svc.postID)
		}
	})
	t.Run("delete post forbidden", func(t *testing.T) {
		svc := &mockWriter{err: &backend.APIError{Status: http.StatusForbidden, Message: "Not your post"}}
		rec := httptest.NewRecorder()
		DeletePostHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/posts/p1", nil), "id", "p1"))
		if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "Not your post") {
			t.Errorf("status %d body %s", rec.Code, rec.Body.String())
		}
	})
	t.Run("like", func(t *testing.T) {
		svc := &mockWriter{toggle: model.LikeToggle{PostID: "p1", UserID: "u1"}}
		rec := httptest.NewRecorder()
		ToggleLikeHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/posts/p1/like", nil), "id", "p1"))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"userId":"u1"`) {
			t.Errorf("status %d body %s", rec.Code, rec.Body.String())
		}
	})
	t.Run("add comment", func(t *testing.T) {
		svc := &mockWriter{}
		rec := httptest.NewRecorder()
		AddCommentHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/comments", strings.NewReader(`{"post":"p1","text":"nice"}`)))
		if rec.Code != http.StatusCreated || svc.postID != "p1" || svc.text != "nice" {
			t.Errorf("status %d post %q text %q", rec.Code, svc.postID, svc.text)
		}
	})
	t.Run("add comment without text", func(t *testing.T) {
		svc := &mockWriter{}
		rec := httptest.NewRecorder()
		AddCommentHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/comments", strings.NewReader(`{"post":"p1"}`)))
		if rec.Code != http.StatusBadRequest || len(svc.calls) != 0 {
			t.Errorf("status %d calls %v", rec.Code, svc.calls)
		}
	})
	t.Run("edit comment", func(t *testing.T) {
		svc := &mockWriter{}
		req := withURLParam(httptest.NewRequest(http.MethodPatch, "/comments/c1", strings.NewReader(`{"post":"p1","text":"edited"}`)), "id", "c1")
		rec := httptest.NewRecorder()
		EditCommentHandler(svc)(rec, req)
		if rec.Code != http.StatusOK || svc.text != "edited" {
			t.Errorf("status %d text %q", rec.Code, svc.text)
		}
	})
	t.Run("delete comment needs post", func(t *testing.T) {
		svc := &mockWriter{}
		rec := httptest.NewRecorder()
		DeleteCommentHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/comments/c1", nil), "id", "c1"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status %d", rec.Code)
		}
		rec = httptest.NewRecorder()
		DeleteCommentHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/comments/c1?post=p1", nil), "id", "c1"))
		if rec.Code != http.StatusNoContent || svc.postID != "p1" {
			t.Errorf("status %d post %q", rec.Code, svc.postID)
		}
	})
	t.Run("unexpected error", func(t *testing.T) {
		svc := &mockWriter{err: errors.New("boom")}
		rec := httptest.NewRecorder()
		ToggleLikeHandler(svc)(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/posts/p1/like", nil), "id", "p1"))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status %d", rec.Code)
		}
	})
}
