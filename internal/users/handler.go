package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/conduit/backend/internal/auth"
	"github.com/ayush/conduit/backend/internal/logging"
	"github.com/ayush/conduit/backend/internal/models"
	"github.com/ayush/conduit/backend/internal/respond"
	"github.com/ayush/conduit/backend/internal/store"
)

const (
	maxAvatarBytes = 5 << 20
	activityLimit  = 20
)

// AvatarPath is where the router serves stored avatars. Uploaded images get
// AvatarPath + key as their URL.
const AvatarPath = "/api/avatars/"

// UserStore defines the user persistence these handlers need.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
}

// FileStore keeps uploaded avatars.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Remove(ctx context.Context, key string) error
}

// ActivityLog records and lists a user's write events.
type ActivityLog interface {
	Record(ctx context.Context, ev models.AuditEvent) error
	ListByActor(ctx context.Context, actorID string, limit int64) ([]models.AuditEvent, error)
}

// Handler serves the current user's account endpoints.
type Handler struct {
	users UserStore
	files FileStore
	audit ActivityLog
}

func NewHandler(users UserStore, files FileStore, audit ActivityLog) *Handler {
	return &Handler{users: users, files: files, audit: audit}
}

type updateRequest struct {
	models.UpdateUserRequest
}

func (req *updateRequest) Bind(r *http.Request) error {
	u := req.User
	if u == nil {
		return errors.New("missing user")
	}
	for name, field := range map[string]*string{"email": u.Email, "username": u.Username, "password": u.Password} {
		if field != nil && strings.TrimSpace(*field) == "" {
			return fmt.Errorf("%s must not be blank", name)
		}
	}
	return nil
}

// ActivityResponse lists recent write events of the caller.
type ActivityResponse struct {
	Events []models.AuditEvent `json:"events"`
}

func (rd *ActivityResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if rd.Events == nil {
		rd.Events = []models.AuditEvent{}
	}
	return nil
}

// Current serves GET /user.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	u, err := h.users.GetUserByID(r.Context(), id.ID)
	if err != nil {
		respond.Store(w, r, "load user", err)
		return
	}
	respond.OK(w, r, http.StatusOK, auth.NewUserResponse(u, auth.TokenFromRequest(r)))
}

// Update serves PUT /user. Only the fields present in the body change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	req := &updateRequest{}
	if err := render.Bind(r, req); err != nil {
		respond.Error(w, r, respond.ErrInvalidRequest(err))
		return
	}

	upd := models.UserUpdate{
		Email:    req.User.Email,
		Username: req.User.Username,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	}
	if req.User.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.User.Password), bcrypt.DefaultCost)
		if err != nil {
			respond.Internal(w, r, "hash password", err)
			return
		}
		hash := string(hashed)
		upd.PasswordHash = &hash
	}

	u, err := h.users.UpdateUser(r.Context(), id.ID, upd)
	if errors.Is(err, store.ErrConflict) {
		respond.Error(w, r, respond.ErrConflict("username or email already taken"))
		return
	}
	if err != nil {
		respond.Store(w, r, "update user", err)
		return
	}

	h.record(r.Context(), models.AuditEvent{Action: models.AuditUserUpdated, ActorID: u.ID, Subject: u.Username})
	respond.OK(w, r, http.StatusOK, auth.NewUserResponse(u, auth.TokenFromRequest(r)))
}

// UploadAvatar serves POST /user/avatar with a multipart "image" field. The
// file goes to object storage and the user's image points at it. A previously
// uploaded avatar is removed once the new one is in place.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+1024)
	file, header, err := r.FormFile("image")
	if err != nil {
		respond.Error(w, r, respond.ErrInvalidRequest(fmt.Errorf("image file is required: %w", err)))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respond.Error(w, r, respond.ErrInvalidRequest(errors.New("file must be an image")))
		return
	}
	if header.Size > maxAvatarBytes {
		respond.Error(w, r, respond.ErrInvalidRequest(errors.New("image too large")))
		return
	}

	prev, err := h.users.GetUserByID(r.Context(), id.ID)
	if err != nil {
		respond.Store(w, r, "load user", err)
		return
	}

	key := id.ID + "-" + uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	if err := h.files.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		respond.Internal(w, r, "store avatar", err)
		return
	}

	image := AvatarPath + key
	u, err := h.users.UpdateUser(r.Context(), id.ID, models.UserUpdate{Image: &image})
	if err != nil {
		respond.Store(w, r, "update user image", err)
		return
	}
	if prev.Image != nil {
		if old, ok := strings.CutPrefix(*prev.Image, AvatarPath); ok && old != key {
			if err := h.files.Remove(r.Context(), old); err != nil {
				logging.FromContext(r.Context()).Warnw("remove old avatar", "key", old, "error", err)
			}
		}
	}

	h.record(r.Context(), models.AuditEvent{Action: models.AuditUserUpdated, ActorID: u.ID, Subject: image})
	respond.OK(w, r, http.StatusOK, auth.NewUserResponse(u, auth.TokenFromRequest(r)))
}

// Avatar serves GET /api/avatars/{key}.
func (h *Handler) Avatar(w http.ResponseWriter, r *http.Request) {
	body, contentType, err := h.files.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		respond.Store(w, r, "load avatar", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, body); err != nil {
		logging.FromContext(r.Context()).Warnw("stream avatar", "error", err)
	}
}

// Activity serves GET /user/activity.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		respond.Error(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	events, err := h.audit.ListByActor(r.Context(), id.ID, activityLimit)
	if err != nil {
		respond.Internal(w, r, "list activity", err)
		return
	}
	respond.OK(w, r, http.StatusOK, &ActivityResponse{Events: events})
}

func (h *Handler) record(ctx context.Context, ev models.AuditEvent) {
	if err := h.audit.Record(ctx, ev); err != nil {
		logging.FromContext(ctx).Warnw("audit record failed", "action", ev.Action, "error", err)
	}
}
