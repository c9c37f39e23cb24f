package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	ctxkeys "github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/metrics"
	"github.com/fhuszti/levigram-go/internal/port"
	"github.com/sony/gobreaker"
)

const (
	maxErrorBody = 64 << 10

	defaultBreakerFailures = 5
	defaultBreakerOpen     = 30 * time.Second
)

// Client talks JSON to the Levigram REST API.
// The caller's bearer token travels in the request context; the service
// token is used for calls made on nobody's behalf (workers).
type Client struct {
	baseURL      string
	serviceToken string
	http         *http.Client
	cb           *gobreaker.CircuitBreaker
}

var (
	_ port.PostsAPI    = (*Client)(nil)
	_ port.CommentsAPI = (*Client)(nil)
	_ port.UsersAPI    = (*Client)(nil)
	_ port.PushAPI     = (*Client)(nil)
)

func NewClient(baseURL, serviceToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		http:         &http.Client{Timeout: timeout},
		cb:           newBreaker(defaultBreakerFailures, defaultBreakerOpen),
	}
}

// WithBreaker replaces the circuit breaker: after maxFailures consecutive
// transport errors or 5xx responses, calls fail fast with ErrUnavailable for openFor.
func (c *Client) WithBreaker(maxFailures uint32, openFor time.Duration) *Client {
	c.cb = newBreaker(maxFailures, openFor)
	return c
}

func newBreaker(maxFailures uint32, openFor time.Duration) *gobreaker.CircuitBreaker {
	if maxFailures == 0 {
		maxFailures = defaultBreakerFailures
	}
	metrics.BackendBreakerState.Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: backendHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BackendBreakerState.Set(float64(to))
			logger.Warnf(context.Background(), "⚠️  %s circuit breaker: %s → %s", name, from, to)
		},
	})
}

// backendHealthy reports whether err still proves the REST API is serving.
// Client-side errors and caller cancellations never trip the breaker.
func backendHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status < http.StatusInternalServerError
	}
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrMalformedResponse)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s %s", ErrUnavailable, method, path)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := ctxkeys.AuthTokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	logger.Debug(ctx, "backend call", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthenticated
	case http.StatusNotFound:
		return ErrNotFound
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(raw, &e) == nil {
		msg = e.Message
		if msg == "" {
			msg = e.Error
		}
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// decodeList accepts a bare array or an object wrapping it under key. A
// missing or null list is empty; anything else under key is malformed.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return out, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	inner, ok := wrapped[key]
	if !ok || bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(inner, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
