package optimiser

import (
	"bytes"
	"context"
	"image"
	"time"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/port"
)

type PosterExtractor struct {
	grabber    FrameGrabber
	compressor *Compressor
	offset     time.Duration
}

// NewPosterExtractor builds an extractor grabbing the frame at offset,
// or the first decodable frame when offset is zero.
func NewPosterExtractor(grabber FrameGrabber, compressor *Compressor, offset time.Duration) *PosterExtractor {
	return &PosterExtractor{grabber: grabber, compressor: compressor, offset: offset}
}

// Extract returns nil whenever no poster could be produced.
func (p *PosterExtractor) Extract(ctx context.Context, videoPath string, maxDim int, saveData bool) *port.Compressed {
	frame, err := p.grab(ctx, videoPath)
	if err != nil {
		logger.Warnf(ctx, "⚠️  no frame for %q: %v", videoPath, err)
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		logger.Warnf(ctx, "⚠️  undecodable frame for %q: %v", videoPath, err)
		return nil
	}

	out, err := p.compressor.encode(ctx, img, maxDim, saveData)
	if err != nil {
		logger.Warnf(ctx, "⚠️  could not encode poster for %q: %v", videoPath, err)
		return nil
	}
	return &out
}

func (p *PosterExtractor) grab(ctx context.Context, videoPath string) ([]byte, error) {
	if p.offset > 0 {
		frame, err := p.grabber.Grab(ctx, videoPath, p.offset)
		if err == nil {
			return frame, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debugf(ctx, "seek to %s failed for %q, using first frame: %v", p.offset, videoPath, err)
	}
	return p.grabber.Grab(ctx, videoPath, 0)
}
