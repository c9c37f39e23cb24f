package model

import "time"

type User struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

type Comment struct {
	ID        string    `json:"_id"`
	PostID    string    `json:"postId"`
	User      User      `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID        string      `json:"_id"`
	Author    User        `json:"author"`
	Content   string      `json:"content"`
	Media     []MediaItem `json:"media"`
	Likes     []string    `json:"likes"`
	Comments  []Comment   `json:"comments,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NeedsPosterBackfill reports whether a video item lacks its poster.
func (p Post) NeedsPosterBackfill() bool {
	for _, m := range p.Media {
		if m.Poster == "" && m.IsVideo() {
			return true
		}
	}
	return false
}

type FeedPage struct {
	Posts       []Post `json:"posts"`
	HasMore     bool   `json:"hasMore"`
	CurrentPage int    `json:"currentPage,omitempty"`
	TotalPages  int    `json:"totalPages,omitempty"`
}

// PostPayload is the body of the create and edit calls.
type PostPayload struct {
	Content string      `json:"content"`
	Media   []MediaItem `json:"media"`
}

type LikeToggle struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type SignupInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Username   string `json:"username"`
	InviteCode string `json:"inviteCode,omitempty"`
}

type ProfilePayload struct {
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

type PasswordReset struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

type PushSubscription struct {
	Endpoint       string   `json:"endpoint"`
	ExpirationTime *int64   `json:"expirationTime"`
	Keys           PushKeys `json:"keys"`
}
