package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/cryptjournal-api/internal/auth"
	"github.com/delordemm1/cryptjournal-api/internal/httpx"
	"github.com/delordemm1/cryptjournal-api/internal/middleware"
)

// Auth flow names used for metrics.
const (
	FlowSignUp         = "sign_up"
	FlowLogin          = "login"
	FlowForgotPassword = "forgot_password"
	FlowChangePassword = "change_password"
)

// Auth flow outcomes used for metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Recorder observes auth flow outcomes. metrics.Metrics satisfies it.
type Recorder interface {
	ObserveAuth(flow, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveAuth(string, string) {}

// Handler holds the dependencies for the user module's HTTP handlers.
type Handler struct {
	service  Service
	logger   *slog.Logger
	recorder Recorder
}

// NewHandler creates a new handler for the user module. recorder may be nil.
func NewHandler(service Service, logger *slog.Logger, recorder Recorder) *Handler {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Handler{
		service:  service,
		logger:   logger,
		recorder: recorder,
	}
}

// RegisterRoutes sets up the routing for the user module.
func (h *Handler) RegisterRoutes(api huma.API) {
	// --- Authentication Routes (anonymous callers only) ---
	huma.Register(api, huma.Operation{
		OperationID:   "auth-sign-up",
		Method:        http.MethodPost,
		Path:          "/api/auth/sign_up",
		Summary:       "Create an account and log in",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
	}, h.SignUpHandler)

	huma.Register(api, huma.Operation{
		OperationID:   "auth-login",
		Method:        http.MethodPost,
		Path:          "/api/auth/login",
		Summary:       "Log in with email and password",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
	}, h.LoginHandler)

	// --- Password Management Routes ---
	huma.Register(api, huma.Operation{
		OperationID:   "auth-forgot-password",
		Method:        http.MethodPost,
		Path:          "/api/auth/forgot_password",
		Summary:       "Email a password reset link",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
	}, h.ForgotPasswordHandler)

	huma.Register(api, huma.Operation{
		OperationID:   "auth-change-password",
		Method:        http.MethodPost,
		Path:          "/api/auth/change_password",
		Summary:       "Set a new password with a reset token",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
	}, h.ChangePasswordHandler)

	// --- Profile Routes (require an identity) ---
	protected := huma.Middlewares{middleware.RequireIdentity(h.logger)}

	huma.Register(api, huma.Operation{
		OperationID: "profile-get",
		Method:      http.MethodGet,
		Path:        "/api/profile/getUserAccountInfo",
		Summary:     "Get the current user's account information",
		Tags:        []string{"profile"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: protected,
	}, h.GetProfileHandler)

	huma.Register(api, huma.Operation{
		OperationID: "profile-edit",
		Method:      http.MethodPost,
		Path:        "/api/profile/editAccountInformation",
		Summary:     "Update the current user's account information",
		Tags:        []string{"profile"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: protected,
	}, h.UpdateProfileHandler)
}

// MessageResponse is the body of flows that only report a message.
type MessageResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func messageResponse(msg string) *MessageResponse {
	resp := &MessageResponse{}
	resp.Body.Message = msg
	return resp
}

// rejectAuthenticated enforces that auth flows run for anonymous callers only.
func rejectAuthenticated(ctx context.Context) error {
	if _, ok := auth.SessionFrom(ctx).Identity(); ok {
		return ErrAlreadyAuthenticated
	}
	return nil
}

// fail records the outcome of flow and converts err into a problem response.
func (h *Handler) fail(ctx context.Context, flow string, err error) error {
	outcome := OutcomeRejected
	var dp httpx.DomainProblem
	if !errors.As(err, &dp) || dp.ProblemStatus() >= http.StatusInternalServerError {
		outcome = OutcomeError
	}
	h.recorder.ObserveAuth(flow, outcome)
	return httpx.ToProblem(ctx, err)
}
