package compose

import (
	"context"

	"github.com/fhuszti/levigram-go/internal/carousel"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
)

// stagingReleaser deletes released blobs from the staging bucket.
type stagingReleaser struct {
	staging port.Storage
}

var _ carousel.Releaser = (*stagingReleaser)(nil)

func (r *stagingReleaser) Release(ctx context.Context, files ...model.LocalFile) {
	// releases outlive the request that triggered them
	ctx = context.WithoutCancel(ctx)
	for _, f := range files {
		if err := r.staging.RemoveFile(ctx, f.Key); err != nil {
			logger.Warnf(ctx, "⚠️  failed to release staged file %q: %v", f.Key, err)
			continue
		}
		logger.Debugf(ctx, "released staged file %q", f.Key)
	}
}
