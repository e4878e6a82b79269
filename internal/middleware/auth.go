package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/delordemm1/cryptjournal-api/internal/auth"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// TokenVerifier verifies a raw session token. auth.TokenManager satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticator decodes an optional bearer token into an auth.Session on the
// request context. It never rejects a request: a missing, malformed or expired
// token leaves the caller anonymous with the failure recorded on the session.
// Routes that need an identity enforce it themselves (see RequireIdentity).
func Authenticator(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFor(r, verifier)
			if reason := sess.Reason(); reason != nil && reason != auth.ErrTokenMissing {
				logger.Debug("session token rejected",
					"reason", reason,
					"request_id", chimw.GetReqID(r.Context()),
					"path", r.URL.Path,
				)
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

func sessionFor(r *http.Request, verifier TokenVerifier) auth.Session {
	token, err := bearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return auth.Anonymous(err)
	}
	claims, err := verifier.Verify(token)
	if err != nil {
		return auth.Anonymous(err)
	}
	return auth.SessionFromClaims(claims)
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", auth.ErrTokenMissing
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", auth.ErrTokenInvalid
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", auth.ErrTokenMissing
	}
	return token, nil
}
