package feed

import (
	"context"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
)

// Writer forwards mutations and drops the cached reads they make stale.
type Writer struct {
	posts    port.PostsAPI
	comments port.CommentsAPI
	cache    port.Cache
}

// compile-time check: *Writer must satisfy port.FeedWriter
var _ port.FeedWriter = (*Writer)(nil)

func NewWriter(posts port.PostsAPI, comments port.CommentsAPI, cache port.Cache) *Writer {
	return &Writer{posts: posts, comments: comments, cache: cache}
}

func (w *Writer) invalidate(ctx context.Context, keys ...string) {
	if err := w.cache.Invalidate(ctx, keys...); err != nil {
		logger.Warnf(ctx, "⚠️  cache invalidation of %v failed: %v", keys, err)
	}
}

// pagesOf returns the cached feed pages that render post id.
func (w *Writer) pagesOf(ctx context.Context, id string) []string {
	keys, err := w.cache.Tagged(ctx, pagesOfTag(id))
	if err != nil {
		logger.Warnf(ctx, "⚠️  could not list feed pages of post %s: %v", id, err)
		return nil
	}
	return keys
}

func (w *Writer) CreatePost(ctx context.Context, in model.PostPayload) (model.Post, error) {
	p, err := w.posts.CreatePost(ctx, in)
	if err != nil {
		return model.Post{}, err
	}
	w.invalidate(ctx, feedKey(1))
	return p, nil
}

func (w *Writer) EditPost(ctx context.Context, id string, in model.PostPayload) (model.Post, error) {
	p, err := w.posts.EditPost(ctx, id, in)
	if err != nil {
		return model.Post{}, err
	}
	w.invalidate(ctx, append([]string{postKey(id)}, w.pagesOf(ctx, id)...)...)
	return p, nil
}

func (w *Writer) DeletePost(ctx context.Context, id string) error {
	if err := w.posts.DeletePost(ctx, id); err != nil {
		return err
	}
	w.invalidate(ctx, append([]string{postKey(id), feedKey(1)}, w.pagesOf(ctx, id)...)...)
	return nil
}

func (w *Writer) ToggleLike(ctx context.Context, id string) (model.LikeToggle, error) {
	res, err := w.posts.ToggleLike(ctx, id)
	if err != nil {
		return model.LikeToggle{}, err
	}
	w.invalidate(ctx, append([]string{postKey(id), likesKey(id)}, w.pagesOf(ctx, id)...)...)
	return res, nil
}

func (w *Writer) AddComment(ctx context.Context, postID, text string) (model.Comment, error) {
	c, err := w.comments.AddComment(ctx, postID, text)
	if err != nil {
		return model.Comment{}, err
	}
	w.invalidate(ctx, commentsKey(postID))
	return c, nil
}

func (w *Writer) EditComment(ctx context.Context, postID, commentID, text string) (model.Comment, error) {
	c, err := w.comments.EditComment(ctx, commentID, text)
	if err != nil {
		return model.Comment{}, err
	}
	w.invalidate(ctx, commentsKey(postID))
	return c, nil
}

func (w *Writer) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := w.comments.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	w.invalidate(ctx, commentsKey(postID))
	return nil
}
