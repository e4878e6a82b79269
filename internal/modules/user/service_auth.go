package user

import (
	"context"
	"errors"

	"github.com/delordemm1/cryptjournal-api/internal/auth"
	"github.com/google/uuid"
)

// SignUp creates an account and authenticates it. Any storage failure,
// including a duplicate email, is reported as the generic ErrSignUpFailed so
// the response does not reveal which emails are registered.
func (s *service) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := auth.CheckPasswordPolicy(input.Password); err != nil {
		return nil, ErrWeakPassword.WithDetail(err.Error())
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, ErrSignUpFailed.WithCause(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		s.logger.Error("failed to generate user id", "error", err)
		return nil, ErrSignUpFailed.WithCause(err)
	}

	now := s.now()
	newUser := &User{
		ID:                  id.String(),
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		Email:               input.Email,
		PasswordHash:        hashedPassword,
		PhoneNumber:         "",
		UserType:            DefaultUserType,
		JoinDate:            now,
		LastLogon:           now,
		MFAEnabled:          false,
		FailedLoginAttempts: 0,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, ErrEmailExists) {
			s.logger.Warn("sign-up rejected, email already registered")
		} else {
			s.logger.Error("failed to create user", "error", err)
		}
		return nil, ErrSignUpFailed.WithCause(err)
	}

	result, err := s.authenticate(newUser)
	if err != nil {
		return nil, ErrSignUpFailed.WithCause(err)
	}

	s.logger.Info("user signed up", "user_id", newUser.ID)
	return result, nil
}

// Login authenticates a user by email and password. Unknown emails and wrong
// passwords yield the same ErrInvalidCredentials.
func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if s.dummyHash != "" {
				s.hasher.Verify(input.Password, s.dummyHash)
			}
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to find user by email", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	result, err := s.authenticate(user)
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	if err := s.repo.TouchLastLogon(ctx, user.ID, s.now()); err != nil {
		s.logger.Error("failed to update last logon", "user_id", user.ID, "error", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return result, nil
}

func (s *service) authenticate(user *User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to issue session token", "user_id", user.ID, "error", err)
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
