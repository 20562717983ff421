package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ayush/conduit/backend/internal/models"
)

// ErrInvalidToken is returned for malformed, expired, or revoked tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Sessions is the server-side session backend behind the tokens.
type Sessions interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (string, error)
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type claims struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Image    *string `json:"image,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues HS256 tokens bound to a Redis session. The token id
// (jti) is the session id, so deleting the session revokes the token.
type TokenManager struct {
	secret   []byte
	ttl      time.Duration
	sessions Sessions
	now      func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, sessions Sessions) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, sessions: sessions, now: time.Now}
}

// TTL is how long issued tokens and their sessions live.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue opens a session for u and returns the signed token.
func (m *TokenManager) Issue(ctx context.Context, u *models.User) (string, error) {
	sid, err := m.sessions.Create(ctx, u.ID, m.ttl)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:    u.Email,
		Username: u.Username,
		Image:    u.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        sid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry, then that the session named by the
// token still belongs to its subject.
func (m *TokenManager) Verify(ctx context.Context, raw string) (*Identity, error) {
	c, err := m.parse(raw)
	if err != nil {
		return nil, err
	}

	userID, err := m.sessions.Get(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if userID == "" || userID != c.Subject {
		return nil, ErrInvalidToken
	}

	return &Identity{ID: c.Subject, Email: c.Email, Username: c.Username, Image: c.Image}, nil
}

// Revoke deletes the session behind raw. Invalid tokens are ignored.
func (m *TokenManager) Revoke(ctx context.Context, raw string) error {
	c, err := m.parse(raw)
	if err != nil {
		return nil
	}
	return m.sessions.Delete(ctx, c.ID)
}

func (m *TokenManager) parse(raw string) (*claims, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid || c.ID == "" || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// TokenFromRequest reads "Authorization: Token <jwt>" (or Bearer), falling
// back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, value, ok := strings.Cut(h, " ")
		if ok && (strings.EqualFold(scheme, "Token") || strings.EqualFold(scheme, "Bearer")) {
			return strings.TrimSpace(value)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
