package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	"github.com/fhuszti/levigram-go/internal/uuid"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

var ErrLocalMedia = errors.New("media file still holds local data")

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".heic": true, ".heif": true, ".avif": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".webm": true,
	".mkv": true, ".avi": true, ".3gp": true, ".ogv": true,
}

var heicBrands = map[string]bool{
	"heic": true, "heix": true, "hevc": true, "hevx": true, "mif1": true, "msf1": true,
}

// KindOf decides the kind of a selected file from its declared type, then its extension.
func KindOf(contentType, name string) (MediaKind, bool) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaKindImage, true
	case strings.HasPrefix(ct, "video/"):
		return MediaKindVideo, true
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case imageExts[ext]:
		return MediaKindImage, true
	case videoExts[ext]:
		return MediaKindVideo, true
	}
	return "", false
}

// IsHEIC reports whether the file is HEIC/HEIF by declared type, extension or ftyp brand.
func IsHEIC(name, contentType string, head []byte) bool {
	switch strings.ToLower(contentType) {
	case "image/heic", "image/heif", "image/heic-sequence", "image/heif-sequence":
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".heic", ".heif":
		return true
	}
	return SniffHEIC(head)
}

// SniffHEIC checks the ISO-BMFF ftyp box for a HEIF major brand.
func SniffHEIC(head []byte) bool {
	if len(head) < 12 || !bytes.Equal(head[4:8], []byte("ftyp")) {
		return false
	}
	return heicBrands[string(head[8:12])]
}

// LocalFile is a blob held in the staging store, not yet published.
type LocalFile struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// MediaFile is one entry of a draft's carousel.
// Raw == nil means the entry already lives in the object store.
type MediaFile struct {
	ID            uuid.UUID  `json:"id"`
	Kind          MediaKind  `json:"kind"`
	URL           string     `json:"url"`
	Raw           *LocalFile `json:"-"`
	Poster        string     `json:"poster,omitempty"`
	PosterFile    *LocalFile `json:"-"`
	PosterPending bool       `json:"poster_pending,omitempty"`
}

func (f MediaFile) IsLocal() bool {
	return f.Raw != nil || f.PosterFile != nil
}

// LocalFiles lists every staged blob the entry holds.
func (f MediaFile) LocalFiles() []LocalFile {
	var out []LocalFile
	if f.Raw != nil {
		out = append(out, *f.Raw)
	}
	if f.PosterFile != nil {
		out = append(out, *f.PosterFile)
	}
	return out
}

// ToMediaItem turns a fully uploaded entry into its payload shape.
func (f MediaFile) ToMediaItem() (MediaItem, error) {
	if f.IsLocal() {
		return MediaItem{}, ErrLocalMedia
	}
	return MediaItem{URL: f.URL, Poster: f.Poster}, nil
}

// MediaItem is the persisted shape of a post media entry.
type MediaItem struct {
	URL    string `json:"url"`
	Poster string `json:"poster,omitempty"`
}

// UnmarshalJSON accepts the legacy bare-string shape next to {url, poster}.
func (m *MediaItem) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var u string
		if err := json.Unmarshal(trimmed, &u); err != nil {
			return err
		}
		*m = MediaItem{URL: u}
		return nil
	}

	type alias MediaItem
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	*m = MediaItem(a)
	return nil
}

// IsVideo guesses the kind of a persisted item from its URL, the only hint legacy items carry.
func (m MediaItem) IsVideo() bool {
	if strings.Contains(m.URL, "/video/upload/") {
		return true
	}
	u := m.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return videoExts[strings.ToLower(filepath.Ext(u))]
}
