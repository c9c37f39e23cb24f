package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/fhuszti/levigram-go/internal/cloudinary"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/metrics"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/uuid"
	"golang.org/x/sync/errgroup"
)

// UploadCoordinator publishes the staged media of a draft and assembles the post media list.
type UploadCoordinator struct {
	uploader port.Uploader
	staging  port.Storage
	ledger   port.UploadLedger
	newID    port.UUIDGen
	now      func() time.Time
}

func NewUploadCoordinator(uploader port.Uploader, staging port.Storage, ledger port.UploadLedger, newID port.UUIDGen) *UploadCoordinator {
	return &UploadCoordinator{
		uploader: uploader,
		staging:  staging,
		ledger:   ledger,
		newID:    newID,
		now:      time.Now,
	}
}

// UploadAll uploads every entry concurrently and returns the items in carousel order.
// The first failure cancels the remaining uploads and is returned.
func (c *UploadCoordinator) UploadAll(ctx context.Context, draftID uuid.UUID, files []model.MediaFile) ([]model.MediaItem, error) {
	items := make([]model.MediaItem, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			item, err := c.uploadOne(gctx, draftID, f)
			if err != nil {
				return fmt.Errorf("media #%d: %w", i, err)
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// uploadOne sends the raw blob first, then the local poster.
func (c *UploadCoordinator) uploadOne(ctx context.Context, draftID uuid.UUID, f model.MediaFile) (model.MediaItem, error) {
	item := model.MediaItem{URL: f.URL, Poster: f.Poster}

	if f.Raw != nil {
		res, err := c.publish(ctx, draftID, *f.Raw, cloudinary.FolderPosts, port.ResourceAuto, "media")
		if err != nil {
			return model.MediaItem{}, err
		}
		item.URL = res.URL
	}
	if f.PosterFile != nil {
		res, err := c.publish(ctx, draftID, *f.PosterFile, cloudinary.FolderPosters, port.ResourceImage, "poster")
		if err != nil {
			return model.MediaItem{}, err
		}
		item.Poster = res.URL
	}
	return item, nil
}

// Publish uploads one staged blob outside of a post submission (avatars).
func (c *UploadCoordinator) Publish(ctx context.Context, owner uuid.UUID, lf model.LocalFile, folder string) (port.UploadResult, error) {
	return c.publish(ctx, owner, lf, folder, port.ResourceImage, "avatar")
}

func (c *UploadCoordinator) publish(ctx context.Context, draftID uuid.UUID, lf model.LocalFile, folder, resource, kind string) (port.UploadResult, error) {
	body, err := c.staging.GetFile(ctx, lf.Key)
	if err != nil {
		return port.UploadResult{}, fmt.Errorf("open staged file %q: %w", lf.Key, err)
	}
	defer func() {
		if err := body.Close(); err != nil {
			logger.Warnf(ctx, "failed to close staged file %q: %v", lf.Key, err)
		}
	}()

	start := time.Now()
	res, err := c.uploader.Upload(ctx, port.UploadInput{
		Folder:       folder,
		Name:         lf.Name,
		ContentType:  lf.ContentType,
		ResourceType: resource,
		Body:         body,
		Size:         lf.SizeBytes,
	})
	metrics.UploadDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.UploadsTotal.WithLabelValues(kind, metrics.Result(err)).Inc()
	if err != nil {
		return port.UploadResult{}, fmt.Errorf("upload %q: %w", lf.Name, err)
	}
	logger.Infof(ctx, "✅  Uploaded %s %q to %s", kind, lf.Name, folder)

	now := c.now().UTC()
	rec := &model.Upload{
		ID:           c.newID(),
		DraftID:      draftID,
		PublicID:     res.PublicID,
		URL:          res.URL,
		ResourceType: res.ResourceType,
		Folder:       folder,
		Status:       model.UploadStatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.ledger.Record(ctx, rec); err != nil {
		logger.Warnf(ctx, "⚠️  could not record upload %q in ledger: %v", res.URL, err)
	}
	return res, nil
}
