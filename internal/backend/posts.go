package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fhuszti/levigram-go/internal/model"
)

func (c *Client) GetFeed(ctx context.Context, page int) (model.FeedPage, error) {
	var out model.FeedPage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("posts?page=%d", page), nil, &out); err != nil {
		return model.FeedPage{}, err
	}
	if out.Posts == nil {
		out.Posts = []model.Post{}
	}
	normalizePosts(out.Posts)
	return out, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (model.Post, error) {
	var out model.Post
	if err := c.do(ctx, http.MethodGet, "posts/"+escape(id), nil, &out); err != nil {
		return model.Post{}, err
	}
	normalizePost(&out)
	return out, nil
}

func (c *Client) SearchPosts(ctx context.Context, query string) ([]model.Post, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "posts/search?query="+url.QueryEscape(query), nil, &raw); err != nil {
		return nil, err
	}
	posts, err := decodeList[model.Post](raw, "items")
	if err != nil {
		return nil, err
	}
	normalizePosts(posts)
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, in model.PostPayload) (model.Post, error) {
	var out model.Post
	if err := c.do(ctx, http.MethodPost, "posts", payload(in), &out); err != nil {
		return model.Post{}, err
	}
	normalizePost(&out)
	return out, nil
}

func (c *Client) EditPost(ctx context.Context, id string, in model.PostPayload) (model.Post, error) {
	var out model.Post
	if err := c.do(ctx, http.MethodPatch, "posts/"+escape(id), payload(in), &out); err != nil {
		return model.Post{}, err
	}
	normalizePost(&out)
	return out, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "posts/"+escape(id), nil, nil)
}

func (c *Client) ToggleLike(ctx context.Context, id string) (model.LikeToggle, error) {
	var out model.LikeToggle
	if err := c.do(ctx, http.MethodPost, "posts/"+escape(id)+"/like", nil, &out); err != nil {
		return model.LikeToggle{}, err
	}
	if out.PostID == "" {
		out.PostID = id
	}
	return out, nil
}

func (c *Client) GetLikes(ctx context.Context, id string) ([]model.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "posts/"+escape(id)+"/likes", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.User](raw, "likes")
}

// payload never sends a null media list.
func payload(in model.PostPayload) model.PostPayload {
	if in.Media == nil {
		in.Media = []model.MediaItem{}
	}
	return in
}

func normalizePost(p *model.Post) {
	if p.Media == nil {
		p.Media = []model.MediaItem{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
}

func normalizePosts(posts []model.Post) {
	for i := range posts {
		normalizePost(&posts[i])
	}
}
