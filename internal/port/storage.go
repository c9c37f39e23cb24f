package port

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a stored file.
type FileInfo struct {
	SizeBytes   int64
	ContentType string
}

// Storage defines bucket-scoped file storage operations.
type Storage interface {
	GeneratePresignedDownloadURL(ctx context.Context, fileKey string, expiry time.Duration) (string, error)
	StatFile(ctx context.Context, fileKey string) (FileInfo, error)
	RemoveFile(ctx context.Context, fileKey string) error
	GetFile(ctx context.Context, fileKey string) (io.ReadSeekCloser, error)
	SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error
}
