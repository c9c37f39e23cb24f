package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fhuszti/levigram-go/internal/logger"
	"github.com/fhuszti/levigram-go/internal/validation"
	"github.com/go-chi/chi/v5"
)

const maxJSONBody = 1 << 20

// decodeJSON reads and validates a JSON body. It writes the error response itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(r.Context(), w, http.StatusBadRequest, "Invalid request", fmt.Errorf("invalid JSON: %w", err))
		return false
	}
	return validate(w, r, dst)
}

func validate(w http.ResponseWriter, r *http.Request, v any) bool {
	errs := validation.ValidateStruct(v)
	if errs == nil {
		return true
	}
	errsJSON, err := validation.ErrorsToJson(errs)
	if err != nil {
		WriteError(r.Context(), w, http.StatusInternalServerError, "Validation error (could not encode details)", fmt.Errorf("encoding validation errors: %w", err))
		return false
	}

	// return the validation errors payload directly
	RespondRawJSON(r.Context(), w, http.StatusBadRequest, []byte(errsJSON))
	logger.Warnf(r.Context(), "❌  Validation failed: %s", errsJSON)
	return false
}

func intParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}
