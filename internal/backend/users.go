package backend

import (
	"context"
	"net/http"

	"github.com/fhuszti/levigram-go/internal/model"
)

func (c *Client) Login(ctx context.Context, in model.Credentials) (model.Session, error) {
	var out model.Session
	if err := c.do(ctx, http.MethodPost, "users/login", in, &out); err != nil {
		return model.Session{}, err
	}
	if out.Token == "" {
		return model.Session{}, ErrMalformedResponse
	}
	return out, nil
}

func (c *Client) Signup(ctx context.Context, in model.SignupInput) error {
	return c.do(ctx, http.MethodPost, "users/signup", in, nil)
}

func (c *Client) Me(ctx context.Context) (model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "users/me", nil, &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, userID string, in model.ProfilePayload) (model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPatch, "users/"+escape(userID), in, &out); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

func (c *Client) ResetPassword(ctx context.Context, in model.PasswordReset) error {
	return c.do(ctx, http.MethodPost, "users/reset-password", in, nil)
}
