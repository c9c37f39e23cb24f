package optimiser

import (
	"bytes"
	"context"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
)

type Optimiser struct {
	normalizer *Normalizer
	compressor *Compressor
	posters    *PosterExtractor
}

// compile-time check: *Optimiser must satisfy port.MediaOptimiser
var _ port.MediaOptimiser = (*Optimiser)(nil)

func NewOptimiser(normalizer *Normalizer, compressor *Compressor, posters *PosterExtractor) *Optimiser {
	logger.Info(context.Background(), "initialising optimiser...")
	return &Optimiser{
		normalizer: normalizer,
		compressor: compressor,
		posters:    posters,
	}
}

func (o *Optimiser) Normalize(ctx context.Context, name, contentType string, data []byte) (port.NormalizedFile, error) {
	return o.normalizer.Normalize(ctx, name, contentType, data)
}

func (o *Optimiser) Compress(ctx context.Context, data []byte, maxDim int, saveData bool) (port.Compressed, error) {
	return o.compressor.Compress(ctx, bytes.NewReader(data), maxDim, saveData)
}

func (o *Optimiser) ExtractPoster(ctx context.Context, videoPath string, maxDim int, saveData bool) *port.Compressed {
	return o.posters.Extract(ctx, videoPath, maxDim, saveData)
}
