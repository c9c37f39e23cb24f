package feed

import (
	"github.com/fhuszti/levigram-go/internal/cloudinary"
	"github.com/fhuszti/levigram-go/internal/model"
)

const avatarSize = 64

// MediaView is a post media item with its delivery URLs.
type MediaView struct {
	URL     string          `json:"url"`
	Poster  string          `json:"poster,omitempty"`
	Kind    model.MediaKind `json:"kind"`
	Display string          `json:"display"`
	Gallery string          `json:"gallery"`
	// PosterDisplay is empty for images.
	PosterDisplay string `json:"posterDisplay,omitempty"`
}

// PostView shadows the media of the post with display-ready items.
type PostView struct {
	model.Post
	Media []MediaView `json:"media"`
}

type PageView struct {
	Posts       []PostView `json:"posts"`
	HasMore     bool       `json:"hasMore"`
	CurrentPage int        `json:"currentPage,omitempty"`
	TotalPages  int        `json:"totalPages,omitempty"`
}

type SearchView struct {
	Items []PostView `json:"items"`
}

type LikesView struct {
	Likes []model.User `json:"likes"`
}

type CommentsView struct {
	Comments []model.Comment `json:"comments"`
}

func mediaView(m model.MediaItem) MediaView {
	v := MediaView{URL: m.URL, Poster: m.Poster, Kind: model.MediaKindImage}
	if m.IsVideo() {
		v.Kind = model.MediaKindVideo
		v.Display = m.URL
		v.Gallery = m.URL
		if m.Poster != "" {
			v.PosterDisplay = cloudinary.BuildURL(m.Poster, cloudinary.FeedTransform)
		}
		return v
	}
	v.Display = cloudinary.BuildURL(m.URL, cloudinary.FeedTransform)
	v.Gallery = cloudinary.BuildURL(m.URL, cloudinary.GalleryTransform)
	return v
}

func postView(p model.Post) PostView {
	p.Author.ProfilePicture = cloudinary.BuildURL(p.Author.ProfilePicture, cloudinary.AvatarTransform(avatarSize))
	v := PostView{Post: p, Media: make([]MediaView, 0, len(p.Media))}
	for _, m := range p.Media {
		v.Media = append(v.Media, mediaView(m))
	}
	v.Post.Media = nil
	return v
}

func postViews(posts []model.Post) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, postView(p))
	}
	return out
}
