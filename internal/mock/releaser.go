package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/levigram-go/internal/model"
)

// Releaser records released staging keys.
type Releaser struct {
	mu       sync.Mutex
	Released []string
}

func (r *Releaser) Release(ctx context.Context, files ...model.LocalFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range files {
		r.Released = append(r.Released, f.Key)
	}
}

func (r *Releaser) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Released...)
}
