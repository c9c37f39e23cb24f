package optimiser

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageDim  = 1600
	MaxPosterDim = 720
	MaxAvatarDim = 512

	DefaultQuality  = 60
	SaveDataQuality = 50
)

// Quality picks the encoder quality for the client's data-saving preference.
func Quality(saveData bool) int {
	if saveData {
		return SaveDataQuality
	}
	return DefaultQuality
}

// ScaleDims bounds w×h to maxDim on its larger side, keeping the aspect ratio.
func ScaleDims(w, h, maxDim int) (int, int) {
	if w <= 0 || h <= 0 || maxDim <= 0 {
		return w, h
	}
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	ratio := float64(w) / float64(h)
	if w > h {
		return maxDim, atLeastOne(math.Round(float64(maxDim) / ratio))
	}
	return atLeastOne(math.Round(float64(maxDim) * ratio)), maxDim
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}

type Compressor struct {
	webpEnc WebPEncoder

	probeOnce sync.Once
	webpOK    bool
}

func NewCompressor(webpEnc WebPEncoder) *Compressor {
	return &Compressor{webpEnc: webpEnc}
}

// Compress decodes r, bounds it to maxDim and re-encodes it as WebP, or JPEG
// when the WebP encoder is unusable on this host.
func (c *Compressor) Compress(ctx context.Context, r io.Reader, maxDim int, saveData bool) (port.Compressed, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return port.Compressed{}, fmt.Errorf("optimiser: failed to decode image: %w", err)
	}
	return c.encode(ctx, img, maxDim, saveData)
}

func (c *Compressor) encode(ctx context.Context, img image.Image, maxDim int, saveData bool) (port.Compressed, error) {
	b := img.Bounds()
	w, h := ScaleDims(b.Dx(), b.Dy(), maxDim)
	if w != b.Dx() || h != b.Dy() {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	q := Quality(saveData)
	buf := &bytes.Buffer{}
	if c.supportsWebP(ctx) {
		if err := c.webpEnc.Encode(img, q, buf); err != nil {
			return port.Compressed{}, fmt.Errorf("optimiser: failed to encode WebP: %w", err)
		}
		return port.Compressed{Data: buf.Bytes(), ContentType: "image/webp", Ext: ".webp", Width: w, Height: h}, nil
	}

	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return port.Compressed{}, fmt.Errorf("optimiser: failed to encode JPEG: %w", err)
	}
	return port.Compressed{Data: buf.Bytes(), ContentType: "image/jpeg", Ext: ".jpg", Width: w, Height: h}, nil
}

func (c *Compressor) supportsWebP(ctx context.Context) bool {
	c.probeOnce.Do(func() {
		if c.webpEnc == nil {
			return
		}
		probe := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		probe.Set(0, 0, color.White)
		if err := c.webpEnc.Encode(probe, DefaultQuality, io.Discard); err != nil {
			logger.Warnf(ctx, "⚠️  WebP encoding unavailable, falling back to JPEG: %v", err)
			return
		}
		c.webpOK = true
	})
	return c.webpOK
}
