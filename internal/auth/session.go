package auth

import (
	"context"
	"time"

	"github.com/delordemm1/cryptjournal-api/internal/contextx"
)

// Identity is the authenticated caller decoded from a session token.
type Identity struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Session is either an authenticated Identity or anonymous. An anonymous
// session remembers why no identity was established.
type Session struct {
	identity *Identity
	reason   error
}

// Anonymous returns a session without identity. reason is one of the
// token errors, ErrTokenMissing when no token was presented.
func Anonymous(reason error) Session {
	if reason == nil {
		reason = ErrTokenMissing
	}
	return Session{reason: reason}
}

// Authenticated returns a session carrying id.
func Authenticated(id Identity) Session {
	return Session{identity: &id}
}

// Identity returns the caller's identity and true, or false when anonymous.
func (s Session) Identity() (Identity, bool) {
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// IsAnonymous reports whether no identity is attached.
func (s Session) IsAnonymous() bool { return s.identity == nil }

// Reason is why the session is anonymous; nil for authenticated sessions.
func (s Session) Reason() error {
	if s.identity != nil {
		return nil
	}
	if s.reason == nil {
		return ErrTokenMissing
	}
	return s.reason
}

// SessionFromClaims builds an authenticated session from verified claims.
func SessionFromClaims(c *Claims) Session {
	id := Identity{UserID: c.UserID, Email: c.Email}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return Authenticated(id)
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextx.SessionKey, s)
}

// SessionFrom returns the session stored in ctx, or an anonymous session when
// the Session Middleware did not run.
func SessionFrom(ctx context.Context) Session {
	if s, ok := ctx.Value(contextx.SessionKey).(Session); ok {
		return s
	}
	return Anonymous(ErrTokenMissing)
}
