package optimiser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
)

type Normalizer struct {
	heic HEICConverter
}

func NewNormalizer(heic HEICConverter) *Normalizer {
	return &Normalizer{heic: heic}
}

// Normalize converts HEIC/HEIF input to JPEG. Anything else passes through untouched.
func (n *Normalizer) Normalize(ctx context.Context, name, contentType string, data []byte) (port.NormalizedFile, error) {
	head := data
	if len(head) > 32 {
		head = head[:32]
	}
	if !model.IsHEIC(name, contentType, head) {
		return port.NormalizedFile{Name: name, ContentType: contentType, Data: data}, nil
	}
	if n.heic == nil {
		return port.NormalizedFile{}, fmt.Errorf("optimiser: no HEIC converter configured for %q", name)
	}

	out, err := n.heic.Convert(ctx, data)
	if err != nil {
		return port.NormalizedFile{}, fmt.Errorf("optimiser: failed to convert %q: %w", name, err)
	}
	return port.NormalizedFile{
		Name:        JPEGName(name),
		ContentType: "image/jpeg",
		Data:        out,
		Converted:   true,
	}, nil
}

// JPEGName swaps the extension of name for .jpg.
func JPEGName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	return base + ".jpg"
}
