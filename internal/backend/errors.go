package backend

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated   = errors.New("backend: not authenticated")
	ErrNotFound          = errors.New("backend: not found")
	ErrMalformedResponse = errors.New("backend: malformed response")
	ErrUnavailable       = errors.New("backend: temporarily unavailable")
)

// APIError is a non-success response that maps to no sentinel.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}
