package api_context

import (
	"context"

	"github.com/fhuszti/levigram-go/internal/uuid"
)

type ctxKey string

const (
	DraftIDKey    ctxKey = "draftID"
	AuthUserIDKey ctxKey = "authUserID"
	AuthTokenKey  ctxKey = "authToken"
	SaveDataKey   ctxKey = "saveData"
)

func DraftIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(DraftIDKey).(uuid.UUID)
	return id, ok
}

func WithDraftID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, DraftIDKey, id)
}

// AuthUserIDFromContext returns the subject of the verified bearer token.
func AuthUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AuthUserIDKey).(string)
	return id, ok && id != ""
}

func WithAuthUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, AuthUserIDKey, uid)
}

// AuthTokenFromContext returns the raw bearer token forwarded to the REST API.
func AuthTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(AuthTokenKey).(string)
	return tok, ok && tok != ""
}

func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, AuthTokenKey, token)
}

// SaveDataFromContext reports whether the caller asked for reduced data usage.
func SaveDataFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(SaveDataKey).(bool)
	return v
}

func WithSaveData(ctx context.Context, on bool) context.Context {
	return context.WithValue(ctx, SaveDataKey, on)
}
