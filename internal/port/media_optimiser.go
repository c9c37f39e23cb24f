package port

import "context"

// NormalizedFile is a selected file after format normalization.
type NormalizedFile struct {
	Name        string
	ContentType string
	Data        []byte
	Converted   bool
}

// Compressed is a re-encoded image bounded to a maximum dimension.
type Compressed struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// MediaOptimiser prepares selected files for upload.
type MediaOptimiser interface {
	Normalize(ctx context.Context, name, contentType string, data []byte) (NormalizedFile, error)
	Compress(ctx context.Context, data []byte, maxDim int, saveData bool) (Compressed, error)
	// ExtractPoster returns nil when no frame could be produced.
	ExtractPoster(ctx context.Context, videoPath string, maxDim int, saveData bool) *Compressed
}
