package user

import (
	"context"
	"errors"
	"strings"
)

// GetProfile retrieves a user's profile by their ID.
func (s *service) GetProfile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to find user by id", "user_id", userID, "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	return user, nil
}

// UpdateProfile applies the provided profile fields. Names and email are
// trimmed and must stay non-empty. An email already used by another account
// yields ErrEmailExists.
func (s *service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*User, error) {
	for _, f := range []struct {
		name string
		v    **string
	}{
		{"firstName", &input.FirstName},
		{"lastName", &input.LastName},
		{"email", &input.Email},
	} {
		if *f.v == nil {
			continue
		}
		trimmed := strings.TrimSpace(**f.v)
		if trimmed == "" {
			return nil, ErrBlankProfileField.WithDetail(f.name + " cannot be blank.")
		}
		*f.v = &trimmed
	}

	user, err := s.repo.UpdateProfile(ctx, userID, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, ErrEmailExists):
			return nil, ErrEmailExists
		}
		s.logger.Error("failed to update profile", "user_id", userID, "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return user, nil
}
