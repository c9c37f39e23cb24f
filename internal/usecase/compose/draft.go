package compose

import (
	"context"
	"sync"
	"time"

	"github.com/fhuszti/levigram-go/internal/carousel"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

type draftState string

const (
	stateIdle       draftState = "idle"
	stateSelecting  draftState = "selecting"
	stateOptimizing draftState = "optimizing"
	stateSubmitting draftState = "submitting"
	stateClosed     draftState = "closed"
)

// draft is one open compose or edit form.
type draft struct {
	id       uuid.UUID
	owner    string
	postID   string
	carousel *carousel.Carousel

	// background poster jobs and ingest batches still running
	pending sync.WaitGroup

	bgCtx    context.Context
	cancelBg context.CancelFunc

	// ops is held shared by carousel mutations and exclusively while a
	// submission takes over the draft.
	ops sync.RWMutex

	mu        sync.Mutex
	state     draftState
	content   string
	ingesting int
	touched   time.Time
}

func newDraft(id uuid.UUID, owner, postID, content string, c *carousel.Carousel, now time.Time) *draft {
	bgCtx, cancel := context.WithCancel(context.Background())
	return &draft{
		id:       id,
		owner:    owner,
		postID:   postID,
		carousel: c,
		bgCtx:    bgCtx,
		cancelBg: cancel,
		state:    stateIdle,
		content:  content,
		touched:  now,
	}
}

// guard rejects mutations of a submitting or closed draft. Callers hold d.mu.
func (d *draft) guard() error {
	switch d.state {
	case stateSubmitting:
		return ErrSubmitInProgress
	case stateClosed:
		return ErrDraftClosed
	}
	return nil
}

// beginIngest marks an ingest batch as running.
func (d *draft) beginIngest(now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.guard(); err != nil {
		return err
	}
	d.ingesting++
	d.pending.Add(1)
	d.state = stateSelecting
	d.touched = now
	return nil
}

func (d *draft) optimizing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateSelecting {
		d.state = stateOptimizing
	}
}

func (d *draft) endIngest(now time.Time) {
	d.mu.Lock()
	d.ingesting--
	if d.ingesting == 0 && (d.state == stateSelecting || d.state == stateOptimizing) {
		d.state = stateIdle
	}
	d.touched = now
	d.mu.Unlock()
	d.pending.Done()
}

// waitPending blocks until every ingest batch and poster job has finished.
func (d *draft) waitPending(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *draft) expiresAt(ttl time.Duration) time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touched.Add(ttl)
}

func (d *draft) view(ttl time.Duration) (port.DraftView, error) {
	snap, err := d.carousel.Snapshot()
	if err != nil {
		return port.DraftView{}, ErrDraftClosed
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	v := port.DraftView{
		ID:        d.id,
		PostID:    d.postID,
		State:     string(d.state),
		Content:   d.content,
		Active:    snap.Active,
		Media:     make([]port.MediaView, 0, len(snap.Files)),
		ExpiresAt: d.touched.Add(ttl),
	}
	for _, f := range snap.Files {
		v.Media = append(v.Media, port.MediaView{
			ID:            f.ID,
			Kind:          f.Kind,
			URL:           f.URL,
			Poster:        f.Poster,
			Local:         f.IsLocal(),
			PosterPending: f.PosterPending,
		})
	}
	return v, nil
}
