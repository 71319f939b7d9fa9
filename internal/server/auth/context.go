package auth

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Identity is the authenticated principal of a request.
type Identity struct {
	UserID string
	Role   models.Role
}

type ctxKey string

const sessionKey ctxKey = "session"

type session struct {
	identity Identity
	token    string
}

// WithSession returns a context carrying the verified identity and the raw
// token it was read from.
func WithSession(ctx context.Context, id Identity, token string) context.Context {
	return context.WithValue(ctx, sessionKey, session{identity: id, token: token})
}

// IdentityFromContext returns the identity attached by the authenticator.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	s, ok := ctx.Value(sessionKey).(session)
	if !ok || s.identity.UserID == "" {
		return Identity{}, false
	}
	return s.identity, true
}

// TokenFromContext returns the raw session token of the request.
func TokenFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(sessionKey).(session)
	if !ok || s.token == "" {
		return "", false
	}
	return s.token, true
}
