package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/levigram-go/internal/model"
)

// PostsAPI implements port.PostsAPI and port.CommentsAPI over an in-memory post map.
type PostsAPI struct {
	mu sync.Mutex

	// stored values
	Posts     map[string]model.Post
	FeedPages map[int]model.FeedPage
	Search    []model.Post
	Likes     []model.User
	Comments  []model.Comment

	// captured inputs
	Created     []model.PostPayload
	Edited      map[string]model.PostPayload
	Deleted     []string
	Toggled     []string
	FeedCalls   []int
	AddedText   []string
	EditedText  []string
	DeletedCmts []string

	// errors
	GetErr    error
	FeedErr   error
	CreateErr error
	EditErr   error
	DeleteErr error

	// Hook runs at the start of CreatePost and EditPost, outside the lock.
	Hook func()
}

func (m *PostsAPI) GetFeed(ctx context.Context, page int) (model.FeedPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedCalls = append(m.FeedCalls, page)
	if m.FeedErr != nil {
		return model.FeedPage{}, m.FeedErr
	}
	return m.FeedPages[page], nil
}

func (m *PostsAPI) GetPost(ctx context.Context, id string) (model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return model.Post{}, m.GetErr
	}
	p, ok := m.Posts[id]
	if !ok {
		return model.Post{}, ErrNotFound
	}
	return p, nil
}

func (m *PostsAPI) SearchPosts(ctx context.Context, query string) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Search, nil
}

func (m *PostsAPI) CreatePost(ctx context.Context, in model.PostPayload) (model.Post, error) {
	if m.Hook != nil {
		m.Hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, in)
	if m.CreateErr != nil {
		return model.Post{}, m.CreateErr
	}
	return model.Post{ID: "new-post", Content: in.Content, Media: in.Media}, nil
}

func (m *PostsAPI) EditPost(ctx context.Context, id string, in model.PostPayload) (model.Post, error) {
	if m.Hook != nil {
		m.Hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Edited == nil {
		m.Edited = map[string]model.PostPayload{}
	}
	m.Edited[id] = in
	if m.EditErr != nil {
		return model.Post{}, m.EditErr
	}
	p := m.Posts[id]
	p.ID = id
	p.Content = in.Content
	p.Media = in.Media
	return p, nil
}

func (m *PostsAPI) DeletePost(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, id)
	return m.DeleteErr
}

func (m *PostsAPI) ToggleLike(ctx context.Context, id string) (model.LikeToggle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Toggled = append(m.Toggled, id)
	return model.LikeToggle{PostID: id, UserID: "u1"}, nil
}

func (m *PostsAPI) GetLikes(ctx context.Context, id string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Likes, nil
}

func (m *PostsAPI) GetComments(ctx context.Context, postID string) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Comments, nil
}

func (m *PostsAPI) AddComment(ctx context.Context, postID, text string) (model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddedText = append(m.AddedText, text)
	return model.Comment{ID: "c-new", PostID: postID, Text: text}, nil
}

func (m *PostsAPI) EditComment(ctx context.Context, commentID, text string) (model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EditedText = append(m.EditedText, text)
	return model.Comment{ID: commentID, Text: text}, nil
}

func (m *PostsAPI) DeleteComment(ctx context.Context, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedCmts = append(m.DeletedCmts, commentID)
	return nil
}

// CreatedPayloads returns a copy of the create calls.
func (m *PostsAPI) CreatedPayloads() []model.PostPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PostPayload(nil), m.Created...)
}
