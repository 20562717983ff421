package articles

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ayush/conduit/backend/internal/auth"
	"github.com/ayush/conduit/backend/internal/models"
	"github.com/ayush/conduit/backend/internal/respond"
)

type ctxKey struct{}

// Handler holds the article HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List serves GET /articles?tag=&author=&favorited=&limit=&offset=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := ParsePage(q)
	h.list(w, r, models.ArticleFilter{
		Tag:         strings.TrimSpace(q.Get("tag")),
		Author:      strings.TrimSpace(q.Get("author")),
		FavoritedBy: strings.TrimSpace(q.Get("favorited")),
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
}

// Feed serves GET /articles/feed: articles by authors the caller follows.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	viewer := auth.ViewerID(r.Context())
	if viewer == "" {
		respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}
	page := ParsePage(r.URL.Query())
	h.list(w, r, models.ArticleFilter{FollowedBy: viewer, Limit: page.Limit, Offset: page.Offset})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, f models.ArticleFilter) {
	views, total, err := h.svc.List(r.Context(), f, auth.ViewerID(r.Context()))
	if err != nil {
		respond.Internal(w, r, "list articles", err)
		return
	}
	respond.OK(w, r, http.StatusOK, &ArticleListResponse{Articles: views, ArticlesCount: total})
}

// Create serves POST /articles. Anonymous callers get 401 before anything
// is read or stored.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	author := auth.FromContext(r.Context())
	if author == nil {
		respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	req := &articleRequest{}
	if err := render.Bind(r, req); err != nil {
		respond.Error(w, r, respond.ErrInvalidRequest(err))
		return
	}

	view, err := h.svc.Create(r.Context(), author.ID, req.input())
	if err != nil {
		respond.Internal(w, r, "create article", err)
		return
	}
	respond.OK(w, r, http.StatusCreated, &ArticleResponse{Article: *view})
}

// ArticleCtx loads the article named by the {slug} URL parameter into the
// request context, answering 404 when it does not exist.
func (h *Handler) ArticleCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, err := h.svc.Load(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			respond.Store(w, r, "load article", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, rec)))
	})
}

func articleFromContext(ctx context.Context) *models.ArticleRecord {
	rec, _ := ctx.Value(ctxKey{}).(*models.ArticleRecord)
	return rec
}

// Get serves GET /articles/{slug}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec := articleFromContext(r.Context())
	respond.OK(w, r, http.StatusOK, &ArticleResponse{Article: Annotate(*rec, auth.ViewerID(r.Context()))})
}

// Favorite serves POST /articles/{slug}/favorite.
func (h *Handler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, h.svc.Favorite)
}

// Unfavorite serves DELETE /articles/{slug}/favorite.
func (h *Handler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	h.toggleFavorite(w, r, h.svc.Unfavorite)
}

type favoriteFunc func(ctx context.Context, rec *models.ArticleRecord, userID string) (*models.ArticleView, error)

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request, fn favoriteFunc) {
	viewer := auth.ViewerID(r.Context())
	if viewer == "" {
		respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	view, err := fn(r.Context(), articleFromContext(r.Context()), viewer)
	if err != nil {
		respond.Store(w, r, "favorite article", err)
		return
	}
	respond.OK(w, r, http.StatusOK, &ArticleResponse{Article: *view})
}

// Tags serves GET /tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		respond.Internal(w, r, "list tags", err)
		return
	}
	respond.OK(w, r, http.StatusOK, &TagListResponse{Tags: tags})
}
