package feed

import (
	"context"
	"errors"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
)

var ErrInvalidPage = errors.New("page must be at least 1")

type Reader struct {
	posts    port.PostsAPI
	comments port.CommentsAPI
	renderer port.HTTPRenderer
	cache    port.Cache
}

// compile-time check: *Reader must satisfy port.FeedReader
var _ port.FeedReader = (*Reader)(nil)

// NewReader renders through renderer and records in cache which posts each
// feed page holds, so post mutations can drop those pages.
func NewReader(posts port.PostsAPI, comments port.CommentsAPI, renderer port.HTTPRenderer, cache port.Cache) *Reader {
	return &Reader{posts: posts, comments: comments, renderer: renderer, cache: cache}
}

func (r *Reader) Feed(ctx context.Context, page int) ([]byte, string, error) {
	if page < 1 {
		return nil, "", ErrInvalidPage
	}
	return r.renderer.Render(ctx, feedKey(page), pageTTL, func(ctx context.Context) (any, error) {
		p, err := r.posts.GetFeed(ctx, page)
		if err != nil {
			return nil, err
		}
		r.tagPage(ctx, page, p.Posts)
		current := p.CurrentPage
		if current == 0 {
			current = page
		}
		return PageView{
			Posts:       postViews(p.Posts),
			HasMore:     p.HasMore,
			CurrentPage: current,
			TotalPages:  p.TotalPages,
		}, nil
	})
}

func (r *Reader) tagPage(ctx context.Context, page int, posts []model.Post) {
	tags := make([]string, 0, len(posts))
	for _, p := range posts {
		tags = append(tags, pagesOfTag(p.ID))
	}
	if err := r.cache.Tag(ctx, feedKey(page), pageTTL, tags...); err != nil {
		logger.Warnf(ctx, "⚠️  could not tag feed page %d: %v", page, err)
	}
}

func (r *Reader) Post(ctx context.Context, id string) ([]byte, string, error) {
	return r.renderer.Render(ctx, postKey(id), pageTTL, func(ctx context.Context) (any, error) {
		p, err := r.posts.GetPost(ctx, id)
		if err != nil {
			return nil, err
		}
		return postView(p), nil
	})
}

// Search skips the backend for a blank query.
func (r *Reader) Search(ctx context.Context, query string) ([]byte, string, error) {
	q := normalizeQuery(query)
	return r.renderer.Render(ctx, searchKey(q), searchTTL, func(ctx context.Context) (any, error) {
		if q == "" {
			return SearchView{Items: []PostView{}}, nil
		}
		posts, err := r.posts.SearchPosts(ctx, q)
		if err != nil {
			return nil, err
		}
		return SearchView{Items: postViews(posts)}, nil
	})
}

func (r *Reader) Likes(ctx context.Context, postID string) ([]byte, string, error) {
	return r.renderer.Render(ctx, likesKey(postID), pageTTL, func(ctx context.Context) (any, error) {
		users, err := r.posts.GetLikes(ctx, postID)
		if err != nil {
			return nil, err
		}
		if users == nil {
			users = []model.User{}
		}
		return LikesView{Likes: users}, nil
	})
}

func (r *Reader) Comments(ctx context.Context, postID string) ([]byte, string, error) {
	return r.renderer.Render(ctx, commentsKey(postID), pageTTL, func(ctx context.Context) (any, error) {
		cs, err := r.comments.GetComments(ctx, postID)
		if err != nil {
			return nil, err
		}
		if cs == nil {
			cs = []model.Comment{}
		}
		return CommentsView{Comments: cs}, nil
	})
}
