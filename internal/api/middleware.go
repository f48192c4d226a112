// Package api implements the articlegen REST API using chi.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/articlegen/internal/auth"
	"github.com/starford/articlegen/internal/models"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Current(ctx context.Context, token string) (models.User, error)
}

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// AuthMiddleware returns middleware that requires a valid bearer token and
// stores the user in the request context. The token is read from the
// "Authorization: Bearer <token>" header, or from the access_token query
// parameter for EventSource clients that cannot set headers.
func AuthMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			u, err := authn.Current(r.Context(), token)
			if err != nil {
				var aerr *auth.Error
				if errors.As(err, &aerr) {
					writeJSON(w, aerr.Status(), errorBody(aerr.Message))
					return
				}
				slog.Error("authenticate failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return r.URL.Query().Get("access_token")
}

// userFrom returns the authenticated user. Only valid behind AuthMiddleware.
func userFrom(r *http.Request) models.User {
	u, _ := r.Context().Value(userKey).(models.User)
	return u
}

func tokenFrom(r *http.Request) string {
	t, _ := r.Context().Value(tokenKey).(string)
	return t
}
