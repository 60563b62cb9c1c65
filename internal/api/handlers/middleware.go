package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"shop-service/internal/auth"
	"shop-service/internal/models"
	"shop-service/internal/repository"
)

type TokenParser interface {
	Parse(token string) (int64, error)
}

// UserLookup confirms that the subject of a valid token still exists.
type UserLookup interface {
	User(ctx context.Context, userID int64) (*models.User, error)
}

// RequireUser resolves the bearer token to a known user id stored in the
// request context.
func RequireUser(tokens TokenParser, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
				return
			}

			userID, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token", nil)
				return
			}

			if _, err := users.User(r.Context(), userID); err != nil {
				if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidInput) {
					writeError(w, http.StatusUnauthorized, "unauthorized", "unknown user", nil)
					return
				}
				writeStoreError(w, r, logger, err, "failed to resolve user")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// RequireAdminKey guards fulfillment routes with a static X-Admin-Key header.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get("X-Admin-Key")
			if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid admin key", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
	}
	return id, ok
}
