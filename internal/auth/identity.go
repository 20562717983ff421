package auth

import "context"

// Identity is the authenticated caller of a request.
type Identity struct {
	ID       string
	Email    string
	Username string
	Image    *string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller, or nil for anonymous requests.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// ViewerID is the caller's user id, or "" when anonymous.
func ViewerID(ctx context.Context) string {
	if id := FromContext(ctx); id != nil {
		return id.ID
	}
	return ""
}
