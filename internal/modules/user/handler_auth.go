package user

import (
	"context"

	"github.com/delordemm1/cryptjournal-api/internal/validation"
)

// --- DTOs (Data Transfer Objects) ---

// Request fields are optional in the OpenAPI schema so that session checks run
// before field validation; validator/v10 enforces presence.

// SignUpRequest defines the structure for the sign-up request body.
type SignUpRequest struct {
	Body struct {
		FirstName       string `json:"firstName" required:"false" validate:"required,max=100"`
		LastName        string `json:"lastName" required:"false" validate:"required,max=100"`
		Email           string `json:"email" required:"false" validate:"required,email,max=255"`
		Password        string `json:"password" required:"false" validate:"required"`
		ConfirmPassword string `json:"confirmPassword" required:"false" validate:"required"`
	}
}

// LoginRequest defines the structure for the login request body.
type LoginRequest struct {
	Body struct {
		Email    string `json:"email" required:"false" validate:"required"`
		Password string `json:"password" required:"false" validate:"required"`
	}
}

// AuthUser is the account summary returned with a session token.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is returned by sign-up and login.
type AuthResponse struct {
	Body struct {
		Message string   `json:"message"`
		Token   string   `json:"token"`
		User    AuthUser `json:"user"`
	}
}

// --- Mapper ---

func toAuthResponse(message string, result *AuthResult) *AuthResponse {
	resp := &AuthResponse{}
	resp.Body.Message = message
	resp.Body.Token = result.Token
	resp.Body.User = AuthUser{ID: result.User.ID, Email: result.User.Email}
	return resp
}

// --- Handlers ---

// SignUpHandler creates an account and returns a session token for it.
func (h *Handler) SignUpHandler(ctx context.Context, input *SignUpRequest) (*AuthResponse, error) {
	if err := rejectAuthenticated(ctx); err != nil {
		return nil, h.fail(ctx, FlowSignUp, err)
	}
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, h.fail(ctx, FlowSignUp, err)
	}

	h.logger.Info("handling sign-up request", "email", input.Body.Email)

	result, err := h.service.SignUp(ctx, SignUpInput{
		FirstName:       input.Body.FirstName,
		LastName:        input.Body.LastName,
		Email:           input.Body.Email,
		Password:        input.Body.Password,
		ConfirmPassword: input.Body.ConfirmPassword,
	})
	if err != nil {
		h.logger.Warn("sign-up failed", "email", input.Body.Email, "error", err)
		return nil, h.fail(ctx, FlowSignUp, err)
	}

	h.recorder.ObserveAuth(FlowSignUp, OutcomeSuccess)
	return toAuthResponse("User Account Created.", result), nil
}

// LoginHandler authenticates with email and password.
func (h *Handler) LoginHandler(ctx context.Context, input *LoginRequest) (*AuthResponse, error) {
	if err := rejectAuthenticated(ctx); err != nil {
		return nil, h.fail(ctx, FlowLogin, err)
	}
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, h.fail(ctx, FlowLogin, err)
	}

	h.logger.Info("handling login request", "email", input.Body.Email)

	result, err := h.service.Login(ctx, LoginInput{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		h.logger.Warn("login attempt failed", "email", input.Body.Email, "error", err)
		return nil, h.fail(ctx, FlowLogin, err)
	}

	h.recorder.ObserveAuth(FlowLogin, OutcomeSuccess)
	return toAuthResponse("Login was successful.", result), nil
}
