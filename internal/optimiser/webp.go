package optimiser

import (
	"image"
	"io"

	"github.com/chai2010/webp"
)

type webpEncoder struct{}

func NewWebPEncoder() WebPEncoder {
	return &webpEncoder{}
}

func (e *webpEncoder) Encode(img image.Image, quality int, w io.Writer) error {
	return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
}
