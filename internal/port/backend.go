package port

import (
	"context"

	"github.com/fhuszti/levigram-go/internal/model"
)

// PostsAPI is the posts and likes part of the remote REST API.
type PostsAPI interface {
	GetFeed(ctx context.Context, page int) (model.FeedPage, error)
	GetPost(ctx context.Context, id string) (model.Post, error)
	SearchPosts(ctx context.Context, query string) ([]model.Post, error)
	CreatePost(ctx context.Context, in model.PostPayload) (model.Post, error)
	EditPost(ctx context.Context, id string, in model.PostPayload) (model.Post, error)
	DeletePost(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id string) (model.LikeToggle, error)
	GetLikes(ctx context.Context, id string) ([]model.User, error)
}

// PostWriter is the create/edit pair a submission ends with.
type PostWriter interface {
	CreatePost(ctx context.Context, in model.PostPayload) (model.Post, error)
	EditPost(ctx context.Context, id string, in model.PostPayload) (model.Post, error)
}

// PostReader loads a single post.
type PostReader interface {
	GetPost(ctx context.Context, id string) (model.Post, error)
}

// CommentsAPI is the comments part of the remote REST API.
type CommentsAPI interface {
	GetComments(ctx context.Context, postID string) ([]model.Comment, error)
	AddComment(ctx context.Context, postID, text string) (model.Comment, error)
	EditComment(ctx context.Context, commentID, text string) (model.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
}

// UsersAPI is the account part of the remote REST API.
type UsersAPI interface {
	Login(ctx context.Context, in model.Credentials) (model.Session, error)
	Signup(ctx context.Context, in model.SignupInput) error
	Me(ctx context.Context) (model.User, error)
	UpdateProfile(ctx context.Context, userID string, in model.ProfilePayload) (model.User, error)
	ResetPassword(ctx context.Context, in model.PasswordReset) error
}

// PushAPI registers Web Push subscriptions with the remote REST API.
type PushAPI interface {
	SubscribePush(ctx context.Context, sub model.PushSubscription) error
}
