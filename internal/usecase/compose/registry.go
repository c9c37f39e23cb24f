package compose

import (
	"sync"
	"time"

	"github.com/fhuszti/levigram-go/internal/metrics"
	"github.com/fhuszti/levigram-go/internal/uuid"
)

// registry holds the open drafts of this process.
type registry struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*draft
}

func newRegistry() *registry {
	return &registry{drafts: map[uuid.UUID]*draft{}}
}

func (r *registry) put(d *draft) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[d.id] = d
	metrics.OpenDrafts.Set(float64(len(r.drafts)))
}

// lookup hides drafts of other owners behind ErrDraftNotFound.
func (r *registry) lookup(id uuid.UUID, owner string) (*draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[id]
	if !ok || d.owner != owner {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

func (r *registry) drop(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, id)
	metrics.OpenDrafts.Set(float64(len(r.drafts)))
}

// expired lists idle drafts untouched for longer than ttl. Submitting drafts never expire.
func (r *registry) expired(now time.Time, ttl time.Duration) []*draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*draft
	for _, d := range r.drafts {
		d.mu.Lock()
		stale := d.state != stateSubmitting && now.Sub(d.touched) > ttl
		d.mu.Unlock()
		if stale {
			out = append(out, d)
		}
	}
	return out
}

func (r *registry) all() []*draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*draft, 0, len(r.drafts))
	for _, d := range r.drafts {
		out = append(out, d)
	}
	return out
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}
