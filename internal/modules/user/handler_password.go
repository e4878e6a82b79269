package user

import (
	"context"

	"github.com/delordemm1/cryptjournal-api/internal/validation"
)

// ForgotPasswordRequest is the body for POST /api/auth/forgot_password.
type ForgotPasswordRequest struct {
	Body struct {
		UserEmail string `json:"userEmail" required:"false" validate:"required"`
	}
}

// ChangePasswordRequest is the body for POST /api/auth/change_password.
type ChangePasswordRequest struct {
	Body struct {
		NewPassword        string `json:"new_password" required:"false" validate:"required"`
		ConfirmNewPassword string `json:"confirm_new_password" required:"false" validate:"required"`
		Token              string `json:"token" required:"false" validate:"required"`
	}
}

// ForgotPasswordHandler issues a reset token and dispatches the reset link.
func (h *Handler) ForgotPasswordHandler(ctx context.Context, input *ForgotPasswordRequest) (*MessageResponse, error) {
	if err := rejectAuthenticated(ctx); err != nil {
		return nil, h.fail(ctx, FlowForgotPassword, err)
	}
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, h.fail(ctx, FlowForgotPassword, err)
	}

	h.logger.Info("handling forgot-password request", "email", input.Body.UserEmail)

	if err := h.service.ForgotPassword(ctx, input.Body.UserEmail); err != nil {
		h.logger.Warn("forgot-password failed", "email", input.Body.UserEmail, "error", err)
		return nil, h.fail(ctx, FlowForgotPassword, err)
	}

	h.recorder.ObserveAuth(FlowForgotPassword, OutcomeSuccess)
	return messageResponse("Password reset link sent."), nil
}

// ChangePasswordHandler redeems a reset token and sets the new password.
func (h *Handler) ChangePasswordHandler(ctx context.Context, input *ChangePasswordRequest) (*MessageResponse, error) {
	if err := rejectAuthenticated(ctx); err != nil {
		return nil, h.fail(ctx, FlowChangePassword, err)
	}
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, h.fail(ctx, FlowChangePassword, err)
	}

	h.logger.Info("handling change-password request")

	err := h.service.ChangePassword(ctx, ChangePasswordInput{
		NewPassword:        input.Body.NewPassword,
		ConfirmNewPassword: input.Body.ConfirmNewPassword,
		Token:              input.Body.Token,
	})
	if err != nil {
		h.logger.Warn("change-password failed", "error", err)
		return nil, h.fail(ctx, FlowChangePassword, err)
	}

	h.recorder.ObserveAuth(FlowChangePassword, OutcomeSuccess)
	return messageResponse("Password has been successfully updated."), nil
}
