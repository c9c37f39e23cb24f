package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
)

const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`

// PublicUploader publishes media into a public-read MinIO bucket. It stands in
// for the hosted object store in self-hosted setups.
type PublicUploader struct {
	store *MinioStorage
	newID port.UUIDGen
}

// compile-time check: *PublicUploader must satisfy port.Uploader
var _ port.Uploader = (*PublicUploader)(nil)

// NewPublicUploader opens bucket and grants anonymous read access on it.
func (c *Strg) NewPublicUploader(ctx context.Context, bucket string, newID port.UUIDGen) (*PublicUploader, error) {
	store, err := c.WithBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if err := c.Client.SetBucketPolicy(ctx, bucket, fmt.Sprintf(publicReadPolicy, bucket)); err != nil {
		return nil, mapMinioErr(err)
	}
	return &PublicUploader{store: store, newID: newID}, nil
}

func (u *PublicUploader) Upload(ctx context.Context, in port.UploadInput) (port.UploadResult, error) {
	key := path.Join(in.Folder, u.newID().String()+extensionFor(in.Name, in.ContentType))
	logger.Debugf(ctx, "publishing %q as %q...", in.Name, key)

	opts := map[string]string{
		"Content-Type":  in.ContentType,
		"Cache-Control": "public, max-age=31536000, immutable",
	}
	if err := u.store.SaveFile(ctx, key, in.Body, in.Size, opts); err != nil {
		return port.UploadResult{}, err
	}

	return port.UploadResult{
		URL:          u.store.PublicURL(key),
		PublicID:     key,
		ResourceType: resourceTypeFor(in.ResourceType, in.ContentType),
	}, nil
}

func extensionFor(name, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func resourceTypeFor(requested, contentType string) string {
	if requested != "" && requested != port.ResourceAuto {
		return requested
	}
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return "raw"
	}
}
