package backfill

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fhuszti/levigram-go/internal/cloudinary"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/metrics"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/optimiser"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

const (
	resultFilled  = "filled"
	resultSkipped = "skipped"
	resultFailed  = "failed"
)

type posterBackfillerSrv struct {
	posts    port.PostReader
	writer   port.PostWriter
	download Downloader
	opt      port.MediaOptimiser
	uploader port.Uploader
	ledger   port.UploadLedger
	tempDir  string
	newID    port.UUIDGen
	now      func() time.Time
}

// compile-time check: *posterBackfillerSrv must satisfy port.PosterBackfiller
var _ port.PosterBackfiller = (*posterBackfillerSrv)(nil)

// NewPosterBackfiller writes the filled media through writer, which is expected
// to drop the cached renderings of the post.
func NewPosterBackfiller(posts port.PostReader, writer port.PostWriter, download Downloader, opt port.MediaOptimiser, uploader port.Uploader, ledger port.UploadLedger, tempDir string) port.PosterBackfiller {
	return &posterBackfillerSrv{
		posts:    posts,
		writer:   writer,
		download: download,
		opt:      opt,
		uploader: uploader,
		ledger:   ledger,
		tempDir:  tempDir,
		newID:    uuid.NewUUID,
		now:      time.Now,
	}
}

// BackfillPost fills in the posters of the post's video items. Items whose
// poster cannot be produced are left unchanged; the order is always kept.
// The uploaded posters are ledgered as one batch, attached to the post only
// once the edit went through and orphaned otherwise.
func (s *posterBackfillerSrv) BackfillPost(ctx context.Context, postID string) error {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("load post %s: %w", postID, err)
	}
	if !post.NeedsPosterBackfill() {
		logger.Infof(ctx, "post %s has nothing to backfill", postID)
		return nil
	}

	media := make([]model.MediaItem, len(post.Media))
	copy(media, post.Media)
	batch := s.newID()
	filled := 0
	for i, m := range media {
		if m.Poster != "" || !m.IsVideo() {
			continue
		}
		url, err := s.posterFor(ctx, batch, m.URL)
		if err != nil {
			metrics.PostersBackfilledTotal.WithLabelValues(resultFailed).Inc()
			logger.Warnf(ctx, "⚠️  no poster for media #%d of post %s: %v", i, postID, err)
			continue
		}
		media[i].Poster = url
		filled++
	}

	if filled == 0 {
		metrics.PostersBackfilledTotal.WithLabelValues(resultSkipped).Inc()
		return nil
	}
	if _, err := s.writer.EditPost(ctx, postID, model.PostPayload{Content: post.Content, Media: media}); err != nil {
		if lerr := s.ledger.MarkOrphaned(context.WithoutCancel(ctx), batch); lerr != nil {
			logger.Warnf(ctx, "⚠️  could not mark posters of post %s orphaned: %v", postID, lerr)
		}
		return fmt.Errorf("edit post %s: %w", postID, err)
	}
	if err := s.ledger.MarkAttached(ctx, batch, postID); err != nil {
		logger.Warnf(ctx, "⚠️  could not attach posters to post %s: %v", postID, err)
	}
	metrics.PostersBackfilledTotal.WithLabelValues(resultFilled).Add(float64(filled))
	logger.Infof(ctx, "✅  Backfilled %d posters of post %s", filled, postID)
	return nil
}

func (s *posterBackfillerSrv) posterFor(ctx context.Context, batch uuid.UUID, videoURL string) (string, error) {
	tmp, err := os.CreateTemp(s.tempDir, "backfill_video_*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			logger.Warnf(ctx, "failed to remove temp file %q: %v", tmp.Name(), err)
		}
	}()

	if _, err := s.download.Download(ctx, videoURL, tmp); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}

	poster := s.opt.ExtractPoster(ctx, tmp.Name(), optimiser.MaxPosterDim, false)
	if poster == nil {
		metrics.PipelineFallbacksTotal.WithLabelValues(metrics.FallbackPosterMissing).Inc()
		return "", optimiser.ErrNoFrame
	}

	id := s.newID()
	res, err := s.uploader.Upload(ctx, port.UploadInput{
		Folder:       cloudinary.FolderPosters,
		Name:         "poster_" + id.String() + poster.Ext,
		ContentType:  poster.ContentType,
		ResourceType: port.ResourceImage,
		Body:         bytes.NewReader(poster.Data),
		Size:         int64(len(poster.Data)),
	})
	metrics.UploadsTotal.WithLabelValues("poster", metrics.Result(err)).Inc()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	if err := s.ledger.Record(ctx, &model.Upload{
		ID:           id,
		DraftID:      batch,
		PublicID:     res.PublicID,
		URL:          res.URL,
		ResourceType: res.ResourceType,
		Folder:       cloudinary.FolderPosters,
		Status:       model.UploadStatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		logger.Warnf(ctx, "⚠️  could not record poster %q in ledger: %v", res.URL, err)
	}
	return res.URL, nil
}
