// Package carousel holds the ordered preview media of one draft.
//
// A single goroutine owns the entries and the active index. Every read and
// mutation is a closure run by that goroutine, so callers never share state.
package carousel

import (
	"context"
	"errors"
	"sync"

	"github.com/fhuszti/levigram-go/internal/model"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

var (
	ErrClosed          = errors.New("carousel closed")
	ErrIndexOutOfRange = errors.New("media index out of range")
)

// Releaser frees staged blobs that left the carousel.
type Releaser interface {
	Release(ctx context.Context, files ...model.LocalFile)
}

// PosterResult is the outcome of a background poster extraction.
// A nil result means no poster could be produced.
type PosterResult struct {
	File *model.LocalFile
	URL  string
}

type Snapshot struct {
	Files  []model.MediaFile
	Active int
}

type state struct {
	files  []model.MediaFile
	active int
}

type Carousel struct {
	release   Releaser
	msgs      chan func(*state)
	done      chan struct{}
	closeOnce sync.Once
}

func New(release Releaser, initial ...model.MediaFile) *Carousel {
	c := &Carousel{
		release: release,
		msgs:    make(chan func(*state)),
		done:    make(chan struct{}),
	}
	st := &state{files: cloneFiles(initial)}
	go c.loop(st)
	return c
}

func (c *Carousel) loop(st *state) {
	for {
		select {
		case fn := <-c.msgs:
			fn(st)
		case <-c.done:
			return
		}
	}
}

// do runs fn on the owning goroutine and waits for it to finish.
func (c *Carousel) do(fn func(*state)) error {
	finished := make(chan struct{})
	op := func(st *state) {
		defer close(finished)
		fn(st)
	}
	select {
	case c.msgs <- op:
	case <-c.done:
		return ErrClosed
	}
	<-finished
	return nil
}

func (c *Carousel) Append(files ...model.MediaFile) error {
	if len(files) == 0 {
		return nil
	}
	added := cloneFiles(files)
	return c.do(func(st *state) {
		st.files = append(st.files, added...)
	})
}

// Remove drops the entry at index and releases its local blobs.
func (c *Carousel) Remove(ctx context.Context, index int) (model.MediaFile, error) {
	var removed model.MediaFile
	var rangeErr error
	err := c.do(func(st *state) {
		if index < 0 || index >= len(st.files) {
			rangeErr = ErrIndexOutOfRange
			return
		}
		removed = st.files[index]
		st.files = append(st.files[:index:index], st.files[index+1:]...)
		st.active = retarget(st.active, len(st.files))
	})
	if err != nil {
		return model.MediaFile{}, err
	}
	if rangeErr != nil {
		return model.MediaFile{}, rangeErr
	}
	c.release.Release(ctx, removed.LocalFiles()...)
	return removed, nil
}

func retarget(active, newLen int) int {
	if active >= newLen {
		return max(0, newLen-1)
	}
	return active
}

func (c *Carousel) SetActive(index int) error {
	var rangeErr error
	err := c.do(func(st *state) {
		if index < 0 || index >= len(st.files) {
			rangeErr = ErrIndexOutOfRange
			return
		}
		st.active = index
	})
	if err != nil {
		return err
	}
	return rangeErr
}

// ApplyPoster settles the pending poster of entry id. It reports false when
// the entry is gone, in which case the poster blob is released.
func (c *Carousel) ApplyPoster(ctx context.Context, id uuid.UUID, res *PosterResult) (bool, error) {
	var applied bool
	var replaced *model.LocalFile
	err := c.do(func(st *state) {
		for i := range st.files {
			f := &st.files[i]
			if f.ID != id {
				continue
			}
			applied = true
			f.PosterPending = false
			if res == nil {
				return
			}
			if res.File != nil {
				replaced = f.PosterFile
				pf := *res.File
				f.PosterFile = &pf
			}
			if res.URL != "" {
				f.Poster = res.URL
			}
			return
		}
	})

	switch {
	case err != nil || !applied:
		if res != nil && res.File != nil {
			c.release.Release(ctx, *res.File)
		}
	case replaced != nil:
		c.release.Release(ctx, *replaced)
	}
	return applied, err
}

// Snapshot returns a deep copy of the entries and the active index.
func (c *Carousel) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := c.do(func(st *state) {
		snap = Snapshot{Files: cloneFiles(st.files), Active: st.active}
	})
	return snap, err
}

func (c *Carousel) Len() int {
	n := 0
	_ = c.do(func(st *state) { n = len(st.files) })
	return n
}

// Close stops the owning goroutine and releases every local blob left.
// Calling it more than once is a no-op.
func (c *Carousel) Close(ctx context.Context) {
	var leftovers []model.LocalFile
	first := false
	c.closeOnce.Do(func() {
		first = true
		_ = c.do(func(st *state) {
			for _, f := range st.files {
				leftovers = append(leftovers, f.LocalFiles()...)
			}
			st.files = nil
			st.active = 0
		})
		close(c.done)
	})
	if first && len(leftovers) > 0 {
		c.release.Release(ctx, leftovers...)
	}
}

func cloneFiles(in []model.MediaFile) []model.MediaFile {
	if in == nil {
		return nil
	}
	out := make([]model.MediaFile, len(in))
	for i, f := range in {
		if f.Raw != nil {
			raw := *f.Raw
			f.Raw = &raw
		}
		if f.PosterFile != nil {
			pf := *f.PosterFile
			f.PosterFile = &pf
		}
		out[i] = f
	}
	return out
}
