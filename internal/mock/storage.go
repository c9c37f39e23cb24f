package mock

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/fhuszti/levigram-go/internal/port"
)

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

// Storage implements the storage interface for tests, keeping saved files in memory.
type Storage struct {
	mu sync.Mutex

	// stored values
	Files        map[string][]byte
	ContentTypes map[string]string

	// captured inputs
	Removed []string
	TTL     time.Duration

	// errors
	GenerateDownloadLinkErr error
	StatErr                 error
	RemoveErr               error
	GetErr                  error
	SaveErr                 error

	// call flags
	GenerateDownloadLinkCalled bool
	StatCalled                 bool
	RemoveCalled               bool
	GetCalled                  bool
	SaveCalled                 bool

	// RemoveHook runs at the start of RemoveFile, outside the lock.
	RemoveHook func(fileKey string)
}

func (m *Storage) GeneratePresignedDownloadURL(ctx context.Context, fileKey string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateDownloadLinkCalled = true
	m.TTL = expiry
	if m.GenerateDownloadLinkErr != nil {
		return "", m.GenerateDownloadLinkErr
	}
	return "https://staging.example.com/" + fileKey, nil
}

func (m *Storage) StatFile(ctx context.Context, fileKey string) (port.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatCalled = true
	if m.StatErr != nil {
		return port.FileInfo{}, m.StatErr
	}
	return port.FileInfo{SizeBytes: int64(len(m.Files[fileKey])), ContentType: m.ContentTypes[fileKey]}, nil
}

func (m *Storage) RemoveFile(ctx context.Context, fileKey string) error {
	if m.RemoveHook != nil {
		m.RemoveHook(fileKey)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalled = true
	m.Removed = append(m.Removed, fileKey)
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.Files, fileKey)
	return nil
}

func (m *Storage) GetFile(ctx context.Context, fileKey string) (io.ReadSeekCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalled = true
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return readSeekNopCloser{bytes.NewReader(m.Files[fileKey])}, nil
}

func (m *Storage) SaveFile(ctx context.Context, fileKey string, reader io.Reader, fileSize int64, opts map[string]string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalled = true
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.Files == nil {
		m.Files = map[string][]byte{}
		m.ContentTypes = map[string]string{}
	}
	m.Files[fileKey] = data
	m.ContentTypes[fileKey] = opts["Content-Type"]
	return nil
}

// Has reports whether fileKey is currently stored.
func (m *Storage) Has(fileKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Files[fileKey]
	return ok
}

// Count returns the number of stored files.
func (m *Storage) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Files)
}
