package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayush/conduit/backend/internal/auth"
	"github.com/ayush/conduit/backend/internal/logging"
	"github.com/ayush/conduit/backend/internal/respond"
)

// TokenVerifier resolves a raw token to the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// RequireAuth rejects requests without a valid token with 401 and otherwise
// puts the caller's identity into the request context. A session backend
// failure is a 500, not a rejection.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.TokenFromRequest(r)
			if raw == "" {
				respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
				return
			}

			id, err := tokens.Verify(r.Context(), raw)
			if errors.Is(err, auth.ErrInvalidToken) {
				logging.FromContext(r.Context()).Debugw("token rejected", "error", err)
				respond.Error(w, r, respond.ErrUnauthorized("session expired"))
				return
			}
			if err != nil {
				respond.Internal(w, r, "verify session", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present. Missing
// or invalid tokens leave the request anonymous; a session backend failure
// is a 500.
func OptionalAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := auth.TokenFromRequest(r); raw != "" {
				id, err := tokens.Verify(r.Context(), raw)
				switch {
				case err == nil:
					r = r.WithContext(auth.WithIdentity(r.Context(), id))
				case !errors.Is(err, auth.ErrInvalidToken):
					respond.Internal(w, r, "verify session", err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
