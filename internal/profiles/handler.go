package profiles

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/conduit/backend/internal/auth"
	"github.com/ayush/conduit/backend/internal/logging"
	"github.com/ayush/conduit/backend/internal/models"
	"github.com/ayush/conduit/backend/internal/respond"
)

// ProfileStore defines the persistence the profile handlers need.
type ProfileStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	Follow(ctx context.Context, followerID, followedID string) error
	Unfollow(ctx context.Context, followerID, followedID string) error
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
}

type AuditLog interface {
	Record(ctx context.Context, ev models.AuditEvent) error
}

type Handler struct {
	store ProfileStore
	audit AuditLog
}

func NewHandler(s ProfileStore, audit AuditLog) *Handler {
	return &Handler{store: s, audit: audit}
}

// ProfileResponse is the {profile} envelope.
type ProfileResponse struct {
	Profile models.Profile `json:"profile"`
}

func (*ProfileResponse) Render(w http.ResponseWriter, r *http.Request) error { return nil }

func newProfile(u *models.User, following bool) *ProfileResponse {
	return &ProfileResponse{Profile: models.Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}}
}

// Get serves GET /profiles/{username}. following is false for anonymous
// callers.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respond.Store(w, r, "load profile", err)
		return
	}

	following := false
	if viewer := auth.ViewerID(r.Context()); viewer != "" {
		following, err = h.store.IsFollowing(r.Context(), viewer, u.ID)
		if err != nil {
			respond.Internal(w, r, "load follow state", err)
			return
		}
	}
	respond.OK(w, r, http.StatusOK, newProfile(u, following))
}

// Follow serves POST /profiles/{username}/follow.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	viewer := auth.ViewerID(r.Context())
	if viewer == "" {
		respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	u, err := h.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respond.Store(w, r, "load profile", err)
		return
	}
	if err := h.store.Follow(r.Context(), viewer, u.ID); err != nil {
		respond.Internal(w, r, "follow", err)
		return
	}

	ev := models.AuditEvent{Action: models.AuditUserFollowed, ActorID: viewer, Subject: u.Username}
	if err := h.audit.Record(r.Context(), ev); err != nil {
		logging.FromContext(r.Context()).Warnw("audit record failed", "action", ev.Action, "error", err)
	}
	respond.OK(w, r, http.StatusOK, newProfile(u, true))
}

// Unfollow serves DELETE /profiles/{username}/follow.
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	viewer := auth.ViewerID(r.Context())
	if viewer == "" {
		respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	u, err := h.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respond.Store(w, r, "load profile", err)
		return
	}
	if err := h.store.Unfollow(r.Context(), viewer, u.ID); err != nil {
		respond.Internal(w, r, "unfollow", err)
		return
	}
	respond.OK(w, r, http.StatusOK, newProfile(u, false))
}
