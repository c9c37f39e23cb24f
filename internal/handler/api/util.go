package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fhuszti/levigram-go/internal/logger"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	switch {
	case err != nil && status >= http.StatusInternalServerError:
		logger.Errorf(ctx, "❌  %s: %v", msg, err)
	case err != nil:
		logger.Warnf(ctx, "⚠️  %s: %v", msg, err)
	default:
		logger.Warn(ctx, "⚠️  "+msg)
	}
	w.Header().Set("Cache-Control", "no-store, max-age=0, must-revalidate")
	RespondJSON(ctx, w, status, ErrorResponse{Error: msg})
}

func RespondJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf(ctx, "❌  Failed to encode JSON response: %v", err)
	}
}

func RespondRawJSON(ctx context.Context, w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		logger.Errorf(ctx, "❌  Failed to write JSON payload: %v", err)
	}
}

// RespondCached writes a rendered payload with its ETag, or 304 when the client already holds it.
// Responses are private since they depend on the caller's token.
func RespondCached(w http.ResponseWriter, r *http.Request, raw []byte, etag string, maxAge int) bool {
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age="+strconv.Itoa(maxAge))
	w.Header().Set("Vary", "Authorization")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	RespondRawJSON(r.Context(), w, http.StatusOK, raw)
	return false
}
