package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/fhuszti/levigram-go/internal/port"
)

// MediaOptimiser implements port.MediaOptimiser without touching pixels.
// Compress prefixes the data with "c:"; posters are "poster:<path>".
type MediaOptimiser struct {
	mu sync.Mutex

	// captured inputs
	Normalized   []string
	Compressed   int
	MaxDims      []int
	SaveData     []bool
	PosterPaths  []string
	PosterMaxDim int

	// errors
	NormalizeErr error
	CompressErr  error
	// NoPoster makes ExtractPoster report no frame.
	NoPoster bool

	// PosterGate, when set, blocks ExtractPoster until it is closed.
	PosterGate chan struct{}
}

func (m *MediaOptimiser) Normalize(ctx context.Context, name, contentType string, data []byte) (port.NormalizedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Normalized = append(m.Normalized, name)
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".heic") && !strings.HasSuffix(lower, ".heif") {
		return port.NormalizedFile{Name: name, ContentType: contentType, Data: data}, nil
	}
	if m.NormalizeErr != nil {
		return port.NormalizedFile{}, m.NormalizeErr
	}
	return port.NormalizedFile{
		Name:        name[:len(name)-len(".heic")] + ".jpg",
		ContentType: "image/jpeg",
		Data:        data,
		Converted:   true,
	}, nil
}

func (m *MediaOptimiser) Compress(ctx context.Context, data []byte, maxDim int, saveData bool) (port.Compressed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Compressed++
	m.MaxDims = append(m.MaxDims, maxDim)
	m.SaveData = append(m.SaveData, saveData)
	if m.CompressErr != nil {
		return port.Compressed{}, m.CompressErr
	}
	return port.Compressed{
		Data:        append([]byte("c:"), data...),
		ContentType: "image/webp",
		Ext:         ".webp",
		Width:       maxDim,
		Height:      maxDim,
	}, nil
}

func (m *MediaOptimiser) ExtractPoster(ctx context.Context, videoPath string, maxDim int, saveData bool) *port.Compressed {
	if m.PosterGate != nil {
		select {
		case <-m.PosterGate:
		case <-ctx.Done():
			return nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.PosterPaths = append(m.PosterPaths, videoPath)
	m.PosterMaxDim = maxDim
	if m.NoPoster {
		return nil
	}
	return &port.Compressed{
		Data:        []byte("poster"),
		ContentType: "image/webp",
		Ext:         ".webp",
		Width:       maxDim,
		Height:      maxDim,
	}
}

func (m *MediaOptimiser) PosterCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.PosterPaths)
}
