package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/delordemm1/cryptjournal-api/internal/config"
	"github.com/delordemm1/cryptjournal-api/internal/httpx"
	"github.com/delordemm1/cryptjournal-api/internal/metrics"
	appmw "github.com/delordemm1/cryptjournal-api/internal/middleware"
	"github.com/delordemm1/cryptjournal-api/internal/modules/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func init() {
	huma.NewError = httpx.NewError
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Body struct {
		Status string `json:"status"`
	}
}

// New creates the router: chi middleware, the Session Middleware, the huma
// API with the user module routes, /health and /metrics.
func New(cfg *config.Config, log *slog.Logger, userService user.Service, tokens appmw.TokenVerifier, m *metrics.Metrics) chi.Router {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if m != nil {
		router.Use(m.Middleware)
	}
	router.Use(appmw.Authenticator(tokens, log))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteProblem(w, httpx.NewProblem(http.StatusNotFound, "Not found"))
	})

	apiConfig := huma.DefaultConfig(cfg.App.Name+" API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(router, apiConfig)

	var recorder user.Recorder
	if m != nil {
		recorder = m
	}
	userHandler := user.NewHandler(userService, log, recorder)
	userHandler.RegisterRoutes(api)

	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health Check",
		Description: "Responds with the server's health status.",
	}, func(ctx context.Context, input *struct{}) (*HealthResponse, error) {
		resp := &HealthResponse{}
		resp.Body.Status = "ok"
		return resp, nil
	})

	if m != nil {
		router.Method(http.MethodGet, "/metrics", m.Handler())
	}

	return router
}

// requestLogger logs one line per request with slog.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
