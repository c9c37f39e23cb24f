package compose

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fhuszti/levigram-go/internal/carousel"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/metrics"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/optimiser"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/uuid"
	"golang.org/x/sync/errgroup"
)

const sniffLen = 32

// prepared is one selected file after the inline part of the pipeline.
type prepared struct {
	file      model.MediaFile
	videoPath string
}

// prepareBatch runs every file through the pipeline. Files that cannot be
// used are dropped with a warning; order of the survivors is kept.
func (s *Composer) prepareBatch(ctx context.Context, d *draft, files []port.IngestFile, saveData bool) ([]prepared, error) {
	results := make([]*prepared, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		g.Go(func() error {
			p, err := s.prepare(gctx, d, f, saveData)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warnf(ctx, "⚠️  dropping %q: %v", f.Name, err)
				return nil
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discardPrepared(ctx, results)
		return nil, err
	}

	out := make([]prepared, 0, len(results))
	for _, p := range results {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Composer) discardPrepared(ctx context.Context, results []*prepared) {
	for _, p := range results {
		if p == nil {
			continue
		}
		s.releaser.Release(ctx, p.file.LocalFiles()...)
		removeTemp(ctx, p.videoPath)
	}
}

func (s *Composer) prepare(ctx context.Context, d *draft, f port.IngestFile, saveData bool) (*prepared, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = rc.Close() }()

	br := bufio.NewReaderSize(rc, 64<<10)
	head, _ := br.Peek(sniffLen)

	kind, ok := model.KindOf(f.ContentType, f.Name)
	if !ok && model.SniffHEIC(head) {
		kind, ok = model.MediaKindImage, true
	}
	if !ok {
		return nil, fmt.Errorf("unsupported type %q", f.ContentType)
	}

	if kind == model.MediaKindVideo {
		return s.prepareVideo(ctx, d, f, br)
	}
	return s.prepareImage(ctx, d, f, br, saveData)
}

func (s *Composer) prepareImage(ctx context.Context, d *draft, f port.IngestFile, r io.Reader, saveData bool) (*prepared, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	norm, err := s.opt.Normalize(ctx, f.Name, f.ContentType, data)
	if err != nil {
		metrics.PipelineFallbacksTotal.WithLabelValues(metrics.FallbackHEICDropped).Inc()
		return nil, err
	}

	out, ct, name := norm.Data, norm.ContentType, norm.Name
	comp, err := s.opt.Compress(ctx, norm.Data, optimiser.MaxImageDim, saveData)
	if err != nil {
		metrics.PipelineFallbacksTotal.WithLabelValues(metrics.FallbackCompressPassthrough).Inc()
		logger.Warnf(ctx, "⚠️  compression of %q failed, keeping original: %v", name, err)
	} else {
		out, ct = comp.Data, comp.ContentType
		name = strings.TrimSuffix(name, filepath.Ext(name)) + comp.Ext
	}
	if ct == "" {
		ct = "application/octet-stream"
	}

	id := s.newID()
	key := stagingKey(d.id, id, "", extFor(name, ct))
	if err := s.staging.SaveFile(ctx, key, bytes.NewReader(out), int64(len(out)), map[string]string{"Content-Type": ct}); err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}
	url, err := s.staging.GeneratePresignedDownloadURL(ctx, key, s.cfg.PreviewTTL)
	if err != nil {
		s.releaser.Release(ctx, model.LocalFile{Key: key})
		return nil, fmt.Errorf("preview url: %w", err)
	}

	return &prepared{file: model.MediaFile{
		ID:   id,
		Kind: model.MediaKindImage,
		URL:  url,
		Raw:  &model.LocalFile{Key: key, Name: name, ContentType: ct, SizeBytes: int64(len(out))},
	}}, nil
}

// prepareVideo stages the video untouched and keeps a local copy for the poster job.
func (s *Composer) prepareVideo(ctx context.Context, d *draft, f port.IngestFile, r io.Reader) (*prepared, error) {
	ct := f.ContentType
	if !strings.HasPrefix(strings.ToLower(ct), "video/") {
		ct = videoTypeFor(f.Name)
	}
	ext := extFor(f.Name, ct)

	tmp, err := os.CreateTemp(s.cfg.TempDir, "draft_video_*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = tmp.Close()
		removeTemp(ctx, tmp.Name())
		return nil, fmt.Errorf("buffer video: %w", err)
	}

	id := s.newID()
	key := stagingKey(d.id, id, "", ext)
	err = s.staging.SaveFile(ctx, key, tmp, size, map[string]string{"Content-Type": ct})
	_ = tmp.Close()
	if err != nil {
		removeTemp(ctx, tmp.Name())
		return nil, fmt.Errorf("stage: %w", err)
	}
	url, err := s.staging.GeneratePresignedDownloadURL(ctx, key, s.cfg.PreviewTTL)
	if err != nil {
		s.releaser.Release(ctx, model.LocalFile{Key: key})
		removeTemp(ctx, tmp.Name())
		return nil, fmt.Errorf("preview url: %w", err)
	}

	return &prepared{
		file: model.MediaFile{
			ID:            id,
			Kind:          model.MediaKindVideo,
			URL:           url,
			Raw:           &model.LocalFile{Key: key, Name: f.Name, ContentType: ct, SizeBytes: size},
			PosterPending: true,
		},
		videoPath: tmp.Name(),
	}, nil
}

// startPoster extracts a poster in the background and posts the result to the carousel.
// The job owns videoPath and removes it when done.
func (s *Composer) startPoster(d *draft, mediaID uuid.UUID, videoPath string, saveData bool) {
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		defer removeTemp(d.bgCtx, videoPath)

		ctx, cancel := context.WithTimeout(d.bgCtx, s.cfg.PosterTimeout)
		defer cancel()

		res := s.posterResult(ctx, d, mediaID, videoPath, saveData)
		applied, err := d.carousel.ApplyPoster(context.WithoutCancel(ctx), mediaID, res)
		switch {
		case err != nil:
			logger.Debugf(ctx, "draft %s closed before poster of %s was ready", d.id, mediaID)
		case !applied:
			logger.Debugf(ctx, "media %s left draft %s before its poster was ready", mediaID, d.id)
		}
	}()
}

func (s *Composer) posterResult(ctx context.Context, d *draft, mediaID uuid.UUID, videoPath string, saveData bool) *carousel.PosterResult {
	poster := s.opt.ExtractPoster(ctx, videoPath, optimiser.MaxPosterDim, saveData)
	if poster == nil {
		metrics.PipelineFallbacksTotal.WithLabelValues(metrics.FallbackPosterMissing).Inc()
		return nil
	}

	key := stagingKey(d.id, mediaID, "_poster", poster.Ext)
	if err := s.staging.SaveFile(ctx, key, bytes.NewReader(poster.Data), int64(len(poster.Data)), map[string]string{"Content-Type": poster.ContentType}); err != nil {
		logger.Warnf(ctx, "⚠️  could not stage poster of %s: %v", mediaID, err)
		return nil
	}
	lf := &model.LocalFile{
		Key:         key,
		Name:        "poster_" + mediaID.String() + poster.Ext,
		ContentType: poster.ContentType,
		SizeBytes:   int64(len(poster.Data)),
	}
	url, err := s.staging.GeneratePresignedDownloadURL(ctx, key, s.cfg.PreviewTTL)
	if err != nil {
		logger.Warnf(ctx, "⚠️  could not sign poster preview of %s: %v", mediaID, err)
	}
	return &carousel.PosterResult{File: lf, URL: url}
}

func stagingKey(draftID, mediaID uuid.UUID, suffix, ext string) string {
	return fmt.Sprintf("%s%s/%s%s%s", stagingPrefix, draftID, mediaID, suffix, ext)
}

func extFor(name, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func videoTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); strings.HasPrefix(ct, "video/") {
		return ct
	}
	return "video/mp4"
}

func removeTemp(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warnf(ctx, "failed to remove temp file %q: %v", path, err)
	}
}
