package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionCookie carries the token for browser clients.
const SessionCookie = "conduit_session"

const sessionPrefix = "session:"

// SessionStore keeps server-side sessions in Redis, mapping a session id to
// a user id. A token is only honoured while its session exists.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Create stores a new session for userID that expires after ttl.
func (s *SessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	sid := uuid.New().String()
	if err := s.rdb.Set(ctx, sessionPrefix+sid, userID, ttl).Err(); err != nil {
		return "", err
	}
	return sid, nil
}

// Get returns the user id of a session, or "" if it is missing or expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := s.rdb.Get(ctx, sessionPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionPrefix+sessionID).Err()
}
