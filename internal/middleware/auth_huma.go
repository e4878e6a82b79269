package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/cryptjournal-api/internal/auth"
	apphttpx "github.com/delordemm1/cryptjournal-api/internal/httpx"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequireIdentity is a per-operation Huma middleware for protected routes. It
// reads the session attached by Authenticator and answers 401 when the caller
// is anonymous.
func RequireIdentity(logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		sess := auth.SessionFrom(ctx.Context())
		if _, ok := sess.Identity(); ok {
			next(ctx)
			return
		}

		reqID := chimw.GetReqID(ctx.Context())
		logger.Warn("anonymous request to protected route",
			"path", ctx.URL().Path,
			"reason", sess.Reason(),
			"request_id", reqID,
		)

		p := &apphttpx.Problem{
			Type:      "urn:problem:auth/err-unauthorized",
			Title:     http.StatusText(http.StatusUnauthorized),
			Status:    http.StatusUnauthorized,
			Detail:    "Unauthorized",
			Message:   "Unauthorized",
			Code:      "ErrUnauthorized",
			RequestID: reqID,
		}
		ctx.SetHeader("Content-Type", "application/json")
		ctx.SetStatus(p.GetStatus())
		_ = json.NewEncoder(ctx.BodyWriter()).Encode(p)
	}
}
