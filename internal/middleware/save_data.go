package middleware

import (
	"net/http"
	"strings"

	"github.com/fhuszti/levigram-go/internal/api_context"
)

// WithSaveData honours the Save-Data client hint, or forces it on for every request.
func WithSaveData(force bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			on := force || strings.EqualFold(strings.TrimSpace(r.Header.Get("Save-Data")), "on")
			ctx := api_context.WithSaveData(r.Context(), on)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
