package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/conduit/backend/internal/logging"
	"github.com/ayush/conduit/backend/internal/models"
	"github.com/ayush/conduit/backend/internal/respond"
	"github.com/ayush/conduit/backend/internal/store"
)

// UserStore defines the user persistence the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuditLog records write events.
type AuditLog interface {
	Record(ctx context.Context, ev models.AuditEvent) error
}

// Handler holds the registration and login HTTP handlers.
type Handler struct {
	users  UserStore
	tokens *TokenManager
	audit  AuditLog
}

func NewHandler(users UserStore, tokens *TokenManager, audit AuditLog) *Handler {
	return &Handler{users: users, tokens: tokens, audit: audit}
}

type registerRequest struct {
	models.RegisterRequest
}

func (req *registerRequest) Bind(r *http.Request) error {
	u := req.User
	if u == nil {
		return errors.New("missing user")
	}
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	if u.Username == "" || u.Email == "" || u.Password == "" {
		return errors.New("username, email and password are required")
	}
	return nil
}

type loginRequest struct {
	models.LoginRequest
}

// Bind accepts the credentials wrapped in "user" or at the top level.
func (req *loginRequest) Bind(r *http.Request) error {
	if req.User != nil {
		req.Credentials = *req.User
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

// UserView is the authenticated user as returned to its owner.
type UserView struct {
	Email    string  `json:"email"`
	Token    string  `json:"token,omitempty"`
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

// UserResponse is the {user} envelope.
type UserResponse struct {
	User UserView `json:"user"`
}

func NewUserResponse(u *models.User, token string) *UserResponse {
	return &UserResponse{User: UserView{
		Email:    u.Email,
		Token:    token,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}}
}

func (*UserResponse) Render(w http.ResponseWriter, r *http.Request) error { return nil }

// Register creates a new user and signs them in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req := &registerRequest{}
	if err := render.Bind(r, req); err != nil {
		respond.Error(w, r, respond.ErrInvalidRequest(err))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.User.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Internal(w, r, "hash password", err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.User.Username, req.User.Email, string(hashed))
	if errors.Is(err, store.ErrConflict) {
		respond.Error(w, r, respond.ErrConflict("username or email already taken"))
		return
	}
	if err != nil {
		respond.Internal(w, r, "create user", err)
		return
	}

	token, err := h.tokens.Issue(r.Context(), user)
	if err != nil {
		respond.Internal(w, r, "issue token", err)
		return
	}
	h.record(r.Context(), models.AuditEvent{Action: models.AuditUserRegistered, ActorID: user.ID, Subject: user.Username})

	h.setCookie(w, token)
	respond.OK(w, r, http.StatusCreated, NewUserResponse(user, token))
}

// Login checks the credentials and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req := &loginRequest{}
	if err := render.Bind(r, req); err != nil {
		respond.Error(w, r, respond.ErrInvalidRequest(err))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		respond.Error(w, r, respond.ErrUnauthorized("invalid credentials"))
		return
	}
	if err != nil {
		respond.Internal(w, r, "load user", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Error(w, r, respond.ErrUnauthorized("invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(r.Context(), user)
	if err != nil {
		respond.Internal(w, r, "issue token", err)
		return
	}

	h.setCookie(w, token)
	respond.OK(w, r, http.StatusOK, NewUserResponse(user, token))
}

// Logout revokes the caller's session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := TokenFromRequest(r); token != "" {
		if err := h.tokens.Revoke(r.Context(), token); err != nil {
			respond.Internal(w, r, "revoke session", err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	render.NoContent(w, r)
}

func (h *Handler) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokens.TTL().Seconds()),
	})
}

func (h *Handler) record(ctx context.Context, ev models.AuditEvent) {
	if err := h.audit.Record(ctx, ev); err != nil {
		logging.FromContext(ctx).Warnw("audit record failed", "action", ev.Action, "error", err)
	}
}
