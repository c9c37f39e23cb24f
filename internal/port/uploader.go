package port

import (
	"context"
	"io"
)

const (
	ResourceAuto  = "auto"
	ResourceImage = "image"
)

type UploadInput struct {
	Folder       string
	Name         string
	ContentType  string
	ResourceType string
	Body         io.Reader
	Size         int64
}

type UploadResult struct {
	URL          string `json:"secure_url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
}

// Uploader publishes a blob to the remote object store and returns its permanent URL.
type Uploader interface {
	Upload(ctx context.Context, in UploadInput) (UploadResult, error)
}
