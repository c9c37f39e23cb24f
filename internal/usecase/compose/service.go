package compose

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/carousel"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/metrics"
	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

type Deps struct {
	Optimiser   port.MediaOptimiser
	Staging     port.Storage
	Coordinator *UploadCoordinator
	Ledger      port.UploadLedger
	Posts       port.PostReader
	Writer      port.PostWriter
	NewID       port.UUIDGen
}

// Composer keeps the open drafts of this process and drives them to a post.
type Composer struct {
	opt         port.MediaOptimiser
	staging     port.Storage
	coordinator *UploadCoordinator
	ledger      port.UploadLedger
	posts       port.PostReader
	writer      port.PostWriter
	newID       port.UUIDGen
	now         func() time.Time

	cfg      Config
	workers  int
	releaser *stagingReleaser
	drafts   *registry
}

// compile-time check: *Composer must satisfy port.DraftComposer
var _ port.DraftComposer = (*Composer)(nil)

func NewComposer(deps Deps, cfg Config) *Composer {
	if deps.NewID == nil {
		deps.NewID = uuid.NewUUID
	}
	return &Composer{
		opt:         deps.Optimiser,
		staging:     deps.Staging,
		coordinator: deps.Coordinator,
		ledger:      deps.Ledger,
		posts:       deps.Posts,
		writer:      deps.Writer,
		newID:       deps.NewID,
		now:         time.Now,
		cfg:         cfg.withDefaults(),
		workers:     max(2, runtime.NumCPU()),
		releaser:    &stagingReleaser{staging: deps.Staging},
		drafts:      newRegistry(),
	}
}

func ownerOf(ctx context.Context) (string, error) {
	if uid, ok := api_context.AuthUserIDFromContext(ctx); ok && uid != "" {
		return uid, nil
	}
	if tok, ok := api_context.AuthTokenFromContext(ctx); ok && tok != "" {
		return "token:" + tok, nil
	}
	return "", ErrUnauthenticated
}

func (s *Composer) lookup(ctx context.Context, id uuid.UUID) (*draft, error) {
	owner, err := ownerOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.drafts.lookup(id, owner)
}

// Open starts a compose form, or an edit form seeded with the post's current media.
func (s *Composer) Open(ctx context.Context, in port.OpenDraftInput) (port.DraftView, error) {
	owner, err := ownerOf(ctx)
	if err != nil {
		return port.DraftView{}, err
	}

	var (
		content string
		initial []model.MediaFile
	)
	if in.PostID != "" {
		post, err := s.posts.GetPost(ctx, in.PostID)
		if err != nil {
			return port.DraftView{}, fmt.Errorf("load post %q: %w", in.PostID, err)
		}
		if uid, ok := api_context.AuthUserIDFromContext(ctx); ok && post.Author.ID != "" && post.Author.ID != uid {
			return port.DraftView{}, ErrNotPostAuthor
		}
		content = post.Content
		for _, m := range post.Media {
			kind := model.MediaKindImage
			if m.IsVideo() {
				kind = model.MediaKindVideo
			}
			initial = append(initial, model.MediaFile{ID: s.newID(), Kind: kind, URL: m.URL, Poster: m.Poster})
		}
	}

	d := newDraft(s.newID(), owner, in.PostID, content, carousel.New(s.releaser, initial...), s.now())
	s.drafts.put(d)
	logger.Infof(ctx, "✅  Opened draft %s (post=%q, media=%d)", d.id, in.PostID, len(initial))
	return d.view(s.cfg.DraftTTL)
}

func (s *Composer) Get(ctx context.Context, id uuid.UUID) (port.DraftView, error) {
	d, err := s.lookup(ctx, id)
	if err != nil {
		return port.DraftView{}, err
	}
	d.mu.Lock()
	d.touched = s.now()
	d.mu.Unlock()
	return d.view(s.cfg.DraftTTL)
}

// Ingest runs the selected files through the pipeline and appends the survivors
// in selection order. Video posters are produced in the background.
func (s *Composer) Ingest(ctx context.Context, in port.IngestInput) (port.DraftView, error) {
	d, err := s.lookup(ctx, in.DraftID)
	if err != nil {
		return port.DraftView{}, err
	}
	if err := d.beginIngest(s.now()); err != nil {
		return port.DraftView{}, err
	}
	defer d.endIngest(s.now())

	d.optimizing()
	batch, err := s.prepareBatch(ctx, d, in.Files, in.SaveData)
	if err != nil {
		return port.DraftView{}, err
	}

	files := make([]model.MediaFile, len(batch))
	for i, p := range batch {
		files[i] = p.file
	}
	if err := d.carousel.Append(files...); err != nil {
		ptrs := make([]*prepared, len(batch))
		for i := range batch {
			ptrs[i] = &batch[i]
		}
		s.discardPrepared(ctx, ptrs)
		return port.DraftView{}, ErrDraftClosed
	}
	for _, p := range batch {
		if p.videoPath != "" {
			s.startPoster(d, p.file.ID, p.videoPath, in.SaveData)
		}
	}

	logger.Infof(ctx, "✅  Draft %s: %d of %d selected files added", d.id, len(batch), len(in.Files))
	return d.view(s.cfg.DraftTTL)
}

func (s *Composer) mutate(ctx context.Context, id uuid.UUID, fn func(d *draft) error) (port.DraftView, error) {
	d, err := s.lookup(ctx, id)
	if err != nil {
		return port.DraftView{}, err
	}
	d.ops.RLock()
	defer d.ops.RUnlock()
	d.mu.Lock()
	if err := d.guard(); err != nil {
		d.mu.Unlock()
		return port.DraftView{}, err
	}
	d.touched = s.now()
	d.mu.Unlock()

	if err := fn(d); err != nil {
		if errors.Is(err, carousel.ErrClosed) {
			return port.DraftView{}, ErrDraftClosed
		}
		return port.DraftView{}, err
	}
	return d.view(s.cfg.DraftTTL)
}

func (s *Composer) RemoveMedia(ctx context.Context, id uuid.UUID, index int) (port.DraftView, error) {
	return s.mutate(ctx, id, func(d *draft) error {
		_, err := d.carousel.Remove(ctx, index)
		return err
	})
}

func (s *Composer) SetActive(ctx context.Context, id uuid.UUID, index int) (port.DraftView, error) {
	return s.mutate(ctx, id, func(d *draft) error {
		return d.carousel.SetActive(index)
	})
}

func (s *Composer) SetContent(ctx context.Context, id uuid.UUID, content string) (port.DraftView, error) {
	return s.mutate(ctx, id, func(d *draft) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.guard(); err != nil {
			return err
		}
		d.content = content
		return nil
	})
}

// Submit waits for pending work, publishes every local entry and creates or
// edits the post. It keeps running if the caller goes away, bounded by
// Config.SubmitTimeout. On failure the draft stays open for a retry.
func (s *Composer) Submit(ctx context.Context, id uuid.UUID) (model.Post, error) {
	d, err := s.lookup(ctx, id)
	if err != nil {
		return model.Post{}, err
	}

	// Wait for in-flight removals so the upload snapshot sees them.
	d.ops.Lock()
	d.mu.Lock()
	if err := d.guard(); err != nil {
		d.mu.Unlock()
		d.ops.Unlock()
		return model.Post{}, err
	}
	d.state = stateSubmitting
	content := d.content
	d.mu.Unlock()
	d.ops.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SubmitTimeout)
	defer cancel()

	mode := "create"
	if d.postID != "" {
		mode = "edit"
	}

	post, err := s.submit(ctx, d, content)
	metrics.SubmissionsTotal.WithLabelValues(mode, metrics.Result(err)).Inc()
	if err != nil {
		d.mu.Lock()
		if d.state == stateSubmitting {
			d.state = stateIdle
		}
		d.touched = s.now()
		d.mu.Unlock()
		return model.Post{}, err
	}

	if err := s.ledger.MarkAttached(ctx, d.id, post.ID); err != nil {
		logger.Warnf(ctx, "⚠️  could not attach uploads of draft %s to post %s: %v", d.id, post.ID, err)
	}
	s.teardown(ctx, d)
	logger.Infof(ctx, "✅  Draft %s submitted as post %s (%s)", d.id, post.ID, mode)
	return post, nil
}

func (s *Composer) submit(ctx context.Context, d *draft, content string) (model.Post, error) {
	if err := d.waitPending(ctx); err != nil {
		return model.Post{}, err
	}
	snap, err := d.carousel.Snapshot()
	if err != nil {
		return model.Post{}, ErrDraftClosed
	}
	if strings.TrimSpace(content) == "" && len(snap.Files) == 0 {
		return model.Post{}, ErrEmptyPost
	}

	media, err := s.coordinator.UploadAll(ctx, d.id, snap.Files)
	if err != nil {
		s.orphan(ctx, d)
		return model.Post{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	payload := model.PostPayload{Content: content, Media: media}
	var post model.Post
	if d.postID != "" {
		post, err = s.writer.EditPost(ctx, d.postID, payload)
	} else {
		post, err = s.writer.CreatePost(ctx, payload)
	}
	if err != nil {
		s.orphan(ctx, d)
		return model.Post{}, err
	}
	return post, nil
}

func (s *Composer) orphan(ctx context.Context, d *draft) {
	if err := s.ledger.MarkOrphaned(context.WithoutCancel(ctx), d.id); err != nil {
		logger.Warnf(ctx, "⚠️  could not mark uploads of draft %s orphaned: %v", d.id, err)
	}
}

func (s *Composer) Discard(ctx context.Context, id uuid.UUID) error {
	d, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	d.mu.Lock()
	if d.state == stateSubmitting {
		d.mu.Unlock()
		return ErrSubmitInProgress
	}
	d.mu.Unlock()

	s.teardown(ctx, d)
	logger.Infof(ctx, "🗑️  Discarded draft %s", d.id)
	return nil
}

// teardown closes the draft and releases everything it still stages.
func (s *Composer) teardown(ctx context.Context, d *draft) {
	d.mu.Lock()
	d.state = stateClosed
	d.mu.Unlock()

	d.cancelBg()
	d.carousel.Close(ctx)
	s.drafts.drop(d.id)
}

// PreviewURL returns a fresh link to one entry, or to its poster.
func (s *Composer) PreviewURL(ctx context.Context, in port.PreviewInput) (string, error) {
	d, err := s.lookup(ctx, in.DraftID)
	if err != nil {
		return "", err
	}
	snap, err := d.carousel.Snapshot()
	if err != nil {
		return "", ErrDraftClosed
	}

	for _, f := range snap.Files {
		if f.ID != in.MediaID {
			continue
		}
		local, remote := f.Raw, f.URL
		if in.Poster {
			local, remote = f.PosterFile, f.Poster
		}
		if local != nil {
			return s.staging.GeneratePresignedDownloadURL(ctx, local.Key, s.cfg.PreviewTTL)
		}
		if remote == "" {
			return "", ErrMediaNotFound
		}
		return remote, nil
	}
	return "", ErrMediaNotFound
}

// RunJanitor discards idle drafts until ctx is done.
func (s *Composer) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Composer) sweep(ctx context.Context) int {
	stale := s.drafts.expired(s.now(), s.cfg.DraftTTL)
	for _, d := range stale {
		s.teardown(ctx, d)
		logger.Infof(ctx, "🧹  Expired draft %s", d.id)
	}
	return len(stale)
}

// Shutdown closes every open draft and waits for their background jobs.
func (s *Composer) Shutdown(ctx context.Context) error {
	drafts := s.drafts.all()
	for _, d := range drafts {
		s.teardown(ctx, d)
	}
	for _, d := range drafts {
		if err := d.waitPending(ctx); err != nil {
			return err
		}
	}
	logger.Infof(ctx, "🛑  Closed %d open drafts", len(drafts))
	return nil
}
