package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ayush/conduit/backend/internal/logging"
)

// Logger puts a request-scoped logger, tagged with the chi request id, into
// the context. It must run after chi's RequestID middleware.
func Logger(base *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				l = l.With("request_id", reqID)
			}
			next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), l)))
		})
	}
}
