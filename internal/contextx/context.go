package contextx

// Key is a private type to avoid collisions in request context keys.
type Key string

// SessionKey is the context key under which the Session Middleware stores the
// caller's auth.Session (authenticated identity or anonymous).
const SessionKey Key = "session"
