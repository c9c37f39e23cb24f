package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fhuszti/levigram-go/internal/model"
)

func (c *Client) GetComments(ctx context.Context, postID string) ([]model.Comment, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "posts/"+escape(postID)+"/comments", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[model.Comment](raw, "comments")
}

func (c *Client) AddComment(ctx context.Context, postID, text string) (model.Comment, error) {
	body := struct {
		Post string `json:"post"`
		Text string `json:"text"`
	}{postID, text}

	var out model.Comment
	if err := c.do(ctx, http.MethodPost, "comments", body, &out); err != nil {
		return model.Comment{}, err
	}
	return out, nil
}

func (c *Client) EditComment(ctx context.Context, commentID, text string) (model.Comment, error) {
	body := struct {
		Text string `json:"text"`
	}{text}

	var out model.Comment
	if err := c.do(ctx, http.MethodPatch, "comments/"+escape(commentID), body, &out); err != nil {
		return model.Comment{}, err
	}
	return out, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "comments/"+escape(commentID), nil, nil)
}
