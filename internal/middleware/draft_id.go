package middleware

import (
	"fmt"
	"net/http"

	"github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/handler/api"
	"github.com/fhuszti/levigram-go/internal/uuid"
	"github.com/go-chi/chi/v5"
)

func WithDraftID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if id == "" {
				api.WriteError(r.Context(), w, http.StatusBadRequest, "draft ID is required", nil)
				return
			}
			parsedID, err := uuid.Parse(id)
			if err != nil {
				api.WriteError(r.Context(), w, http.StatusBadRequest, fmt.Sprintf("draft ID %q is not a valid UUID", id), nil)
				return
			}

			ctx := api_context.WithDraftID(r.Context(), parsedID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
