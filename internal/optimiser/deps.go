package optimiser

import (
	"context"
	"image"
	"io"
	"time"
)

type WebPEncoder interface {
	Encode(img image.Image, quality int, w io.Writer) error
}

// FrameGrabber returns one PNG-encoded frame of a video.
// offset <= 0 means the first decodable frame.
type FrameGrabber interface {
	Grab(ctx context.Context, videoPath string, offset time.Duration) ([]byte, error)
}

// HEICConverter turns HEIC/HEIF bytes into baseline JPEG bytes.
type HEICConverter interface {
	Convert(ctx context.Context, data []byte) ([]byte, error)
}
