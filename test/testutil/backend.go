package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/go-chi/chi/v5"
)

// FakeBackend is an in-memory stand-in for the remote REST API.
// Every request must carry a bearer token; the token is the user ID.
type FakeBackend struct {
	URL string

	mu       sync.Mutex
	posts    []model.Post
	comments map[string][]model.Comment
	seq      int
	calls    map[string]int
}

func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{comments: map[string][]model.Comment{}, calls: map[string]int{}}

	r := chi.NewRouter()
	r.Use(b.auth)
	r.Get("/posts", b.feed)
	r.Post("/posts", b.create)
	r.Get("/posts/search", b.search)
	r.Get("/posts/{id}", b.get)
	r.Patch("/posts/{id}", b.edit)
	r.Delete("/posts/{id}", b.delete)
	r.Post("/posts/{id}/like", b.like)
	r.Get("/posts/{id}/likes", b.likes)
	r.Get("/posts/{id}/comments", b.listComments)
	r.Post("/comments", b.addComment)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	b.URL = srv.URL
	return b
}

// Seed stores posts as they are, so legacy media shapes can be tested.
func (b *FakeBackend) Seed(posts ...model.Post) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.posts = append(b.posts, posts...)
}

func (b *FakeBackend) Post(id string) (model.Post, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return model.Post{}, false
	}
	return b.posts[i], true
}

// Calls returns how often "METHOD /route-pattern" was served.
func (b *FakeBackend) Calls(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

func (b *FakeBackend) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized"})
			return
		}
		next.ServeHTTP(w, r)
		b.mu.Lock()
		b.calls[r.Method+" "+chi.RouteContext(r.Context()).RoutePattern()]++
		b.mu.Unlock()
	})
}

func userOf(r *http.Request) model.User {
	id := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return model.User{ID: id, Username: "user-" + id}
}

func (b *FakeBackend) index(id string) int {
	for i, p := range b.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (b *FakeBackend) feed(w http.ResponseWriter, r *http.Request) {
	const perPage = 10
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	start := min((page-1)*perPage, len(b.posts))
	end := min(start+perPage, len(b.posts))
	writeJSON(w, http.StatusOK, model.FeedPage{
		Posts:       append([]model.Post{}, b.posts[start:end]...),
		HasMore:     end < len(b.posts),
		CurrentPage: page,
		TotalPages:  (len(b.posts) + perPage - 1) / perPage,
	})
}

func (b *FakeBackend) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("query"))
	b.mu.Lock()
	defer b.mu.Unlock()
	items := []model.Post{}
	for _, p := range b.posts {
		if strings.Contains(strings.ToLower(p.Content), q) {
			items = append(items, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]model.Post{"items": items})
}

func (b *FakeBackend) get(w http.ResponseWriter, r *http.Request) {
	p, ok := b.Post(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *FakeBackend) create(w http.ResponseWriter, r *http.Request) {
	var in model.PostPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	p := model.Post{
		ID:        fmt.Sprintf("post-%d", b.seq),
		Author:    userOf(r),
		Content:   in.Content,
		Media:     in.Media,
		Likes:     []string{},
		CreatedAt: time.Now().UTC(),
	}
	// newest first, like the real feed
	b.posts = append([]model.Post{p}, b.posts...)
	writeJSON(w, http.StatusCreated, p)
}

func (b *FakeBackend) edit(w http.ResponseWriter, r *http.Request) {
	var in model.PostPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	b.posts[i].Content = in.Content
	b.posts[i].Media = in.Media
	writeJSON(w, http.StatusOK, b.posts[i])
}

func (b *FakeBackend) delete(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	b.posts = append(b.posts[:i], b.posts[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) like(w http.ResponseWriter, r *http.Request) {
	uid := userOf(r).ID
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(chi.URLParam(r, "id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	likes := b.posts[i].Likes[:0:0]
	found := false
	for _, l := range b.posts[i].Likes {
		if l == uid {
			found = true
			continue
		}
		likes = append(likes, l)
	}
	if !found {
		likes = append(likes, uid)
	}
	b.posts[i].Likes = likes
	writeJSON(w, http.StatusOK, model.LikeToggle{PostID: b.posts[i].ID, UserID: uid})
}

func (b *FakeBackend) likes(w http.ResponseWriter, r *http.Request) {
	p, ok := b.Post(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	users := []model.User{}
	for _, id := range p.Likes {
		users = append(users, model.User{ID: id, Username: "user-" + id})
	}
	writeJSON(w, http.StatusOK, map[string][]model.User{"likes": users})
}

func (b *FakeBackend) listComments(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cs := b.comments[chi.URLParam(r, "id")]
	if cs == nil {
		cs = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string][]model.Comment{"comments": cs})
}

func (b *FakeBackend) addComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Post string `json:"post"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	c := model.Comment{
		ID:        fmt.Sprintf("comment-%d", b.seq),
		PostID:    in.Post,
		User:      userOf(r),
		Text:      in.Text,
		CreatedAt: time.Now().UTC(),
	}
	b.comments[in.Post] = append(b.comments[in.Post], c)
	writeJSON(w, http.StatusCreated, c)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
