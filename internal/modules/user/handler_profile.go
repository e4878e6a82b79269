package user

import (
	"context"

	"github.com/delordemm1/cryptjournal-api/internal/auth"
	"github.com/delordemm1/cryptjournal-api/internal/httpx"
	"github.com/delordemm1/cryptjournal-api/internal/validation"
)

// --- DTOs & Mappers ---

// AccountInfo is the public view of a user's account.
type AccountInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	MFAEnabled  bool   `json:"mfa_enabled"`
}

// ProfileResponse is the body of GET /api/profile/getUserAccountInfo.
type ProfileResponse struct {
	Body struct {
		Message string      `json:"message"`
		Data    AccountInfo `json:"data"`
	}
}

func toProfileResponse(user *User) *ProfileResponse {
	var resp ProfileResponse
	resp.Body.Message = "User information retrieved successfully."
	resp.Body.Data = AccountInfo{
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		MFAEnabled:  user.MFAEnabled,
	}
	return &resp
}

// UpdateProfileRequest holds the account fields that can be edited. Omitted
// fields are left unchanged.
type UpdateProfileRequest struct {
	Body struct {
		FirstName   *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
		LastName    *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
		Email       *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
		PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,max=32"`
		MFAEnabled  *bool   `json:"mfaEnabled,omitempty"`
	}
}

// --- Handlers ---

// GetProfileHandler returns the account information of the caller.
// RequireIdentity has already rejected anonymous sessions.
func (h *Handler) GetProfileHandler(ctx context.Context, input *struct{}) (*ProfileResponse, error) {
	id, ok := auth.SessionFrom(ctx).Identity()
	if !ok {
		h.logger.Error("profile route reached without identity")
		return nil, httpx.ToProblem(ctx, ErrUnauthorized)
	}

	h.logger.Info("handling get profile request", "user_id", id.UserID)

	user, err := h.service.GetProfile(ctx, id.UserID)
	if err != nil {
		h.logger.Warn("failed to get user profile", "user_id", id.UserID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}
	return toProfileResponse(user), nil
}

// UpdateProfileHandler edits the caller's account information.
func (h *Handler) UpdateProfileHandler(ctx context.Context, input *UpdateProfileRequest) (*MessageResponse, error) {
	id, ok := auth.SessionFrom(ctx).Identity()
	if !ok {
		h.logger.Error("profile route reached without identity")
		return nil, httpx.ToProblem(ctx, ErrUnauthorized)
	}
	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("handling update profile request", "user_id", id.UserID)

	_, err := h.service.UpdateProfile(ctx, id.UserID, UpdateProfileInput{
		FirstName:   input.Body.FirstName,
		LastName:    input.Body.LastName,
		Email:       input.Body.Email,
		PhoneNumber: input.Body.PhoneNumber,
		MFAEnabled:  input.Body.MFAEnabled,
	})
	if err != nil {
		h.logger.Warn("failed to update user profile", "user_id", id.UserID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return messageResponse("Account information has been updated."), nil
}
