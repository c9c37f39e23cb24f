package backfill

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Downloader fetches a published video.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

type HTTPDownloader struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPDownloader(timeout time.Duration, maxBytes int64) *HTTPDownloader {
	return &HTTPDownloader{client: &http.Client{Timeout: timeout}, maxBytes: maxBytes}
}

func (d *HTTPDownloader) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if d.maxBytes > 0 {
		body = io.LimitReader(resp.Body, d.maxBytes+1)
	}
	n, err := io.Copy(w, body)
	if err != nil {
		return n, err
	}
	if d.maxBytes > 0 && n > d.maxBytes {
		return n, fmt.Errorf("download %s: larger than %d bytes", url, d.maxBytes)
	}
	return n, nil
}
