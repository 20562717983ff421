// Package server assembles the HTTP routes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/ayush/conduit/backend/internal/articles"
	"github.com/ayush/conduit/backend/internal/auth"
	"github.com/ayush/conduit/backend/internal/middleware"
	"github.com/ayush/conduit/backend/internal/profiles"
	"github.com/ayush/conduit/backend/internal/respond"
	"github.com/ayush/conduit/backend/internal/users"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Logger      *zap.SugaredLogger
	Tokens      middleware.TokenVerifier
	Metrics     middleware.RequestObserver // optional
	CORSOrigins []string

	Auth     *auth.Handler
	Articles *articles.Handler
	Profiles *profiles.Handler
	Users    *users.Handler

	// Health reports whether the backing stores are reachable.
	Health func(ctx context.Context) error
}

// NewRouter builds the public API router.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(render.SetContentType(render.ContentTypeJSON))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	requireAuth := middleware.RequireAuth(d.Tokens)
	optionalAuth := middleware.OptionalAuth(d.Tokens)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, respond.ErrNotFound)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Health(ctx); err != nil {
				d.Logger.Warnw("health check failed", "error", err)
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, render.M{"status": "unavailable"})
				return
			}
		}
		render.JSON(w, r, render.M{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", d.Users.Current)
			r.Put("/", d.Users.Update)
			r.Post("/avatar", d.Users.UploadAvatar)
			r.Get("/activity", d.Users.Activity)
		})
		r.Get("/avatars/{key}", d.Users.Avatar)

		r.Route("/profiles/{username}", func(r chi.Router) {
			r.With(optionalAuth).Get("/", d.Profiles.Get)
			r.With(requireAuth).Post("/follow", d.Profiles.Follow)
			r.With(requireAuth).Delete("/follow", d.Profiles.Unfollow)
		})

		r.Route("/articles", func(r chi.Router) {
			r.With(optionalAuth).Get("/", d.Articles.List)
			r.With(requireAuth).Post("/", d.Articles.Create)
			r.With(requireAuth).Get("/feed", d.Articles.Feed)

			// Auth runs before ArticleCtx so anonymous writes never touch the store.
			r.Route("/{slug}", func(r chi.Router) {
				r.With(optionalAuth, d.Articles.ArticleCtx).Get("/", d.Articles.Get)
				r.Group(func(r chi.Router) {
					r.Use(requireAuth, d.Articles.ArticleCtx)
					r.Post("/favorite", d.Articles.Favorite)
					r.Delete("/favorite", d.Articles.Unfavorite)
				})
			})
		})

		r.Get("/tags", d.Articles.Tags)
	})

	return r
}

// NewDiagRouter serves operational endpoints on the diagnostics port.
func NewDiagRouter(metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Method(http.MethodGet, "/metrics", metrics)
	return r
}
