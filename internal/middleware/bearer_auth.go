package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fhuszti/levigram-go/internal/api_context"
	"github.com/fhuszti/levigram-go/internal/handler/api"
	"github.com/golang-jwt/jwt/v4"
)

// WithBearerAuth forwards the caller's bearer token to the request context.
// When a public key is configured the token must be a valid RS256 JWT and
// its subject becomes the authenticated user ID. Without a key the token is
// forwarded unverified and the REST API stays the authority.
func WithBearerAuth(jwtPublicKeyPEM string) func(http.Handler) http.Handler {
	if jwtPublicKeyPEM == "" {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if raw, ok := bearer(r); ok {
					r = r.WithContext(api_context.WithAuthToken(r.Context(), raw))
				}
				next.ServeHTTP(w, r)
			})
		}
	}

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(jwtPublicKeyPEM))
	if err != nil {
		panic(fmt.Sprintf("invalid JWT RSA public key: %v", err))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw, ok := bearer(r)
			if !ok {
				api.WriteError(ctx, w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodRS256 {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return pubKey, nil
			})
			if err != nil || !tok.Valid {
				api.WriteError(ctx, w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}

			if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
				api.WriteError(ctx, w, http.StatusUnauthorized, "token expired", nil)
				return
			}
			if iat, ok := asInt64(claims["iat"]); ok && time.Unix(iat, 0).After(time.Now().Add(30*time.Second)) {
				api.WriteError(ctx, w, http.StatusUnauthorized, "invalid iat", nil)
				return
			}

			uid := subject(claims)
			if uid == "" {
				api.WriteError(ctx, w, http.StatusUnauthorized, "missing sub", nil)
				return
			}

			ctx = api_context.WithAuthUserID(ctx, uid)
			ctx = api_context.WithAuthToken(ctx, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

// subject reads the user ID from "sub", or from the "id"/"_id" claims the REST API issues.
func subject(claims jwt.MapClaims) string {
	for _, k := range []string{"sub", "id", "_id", "userId"} {
		if s, ok := claims[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case json.Number:
		i, err := x.Int64()
		if err == nil {
			return i, true
		}
	}
	return 0, false
}
