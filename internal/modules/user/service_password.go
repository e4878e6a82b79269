package user

import (
	"context"
	"errors"
	"net/url"

	"github.com/delordemm1/cryptjournal-api/internal/auth"
)

// ForgotPassword issues a reset token for the account registered under email,
// stores it with its expiry and hands the reset link to the dispatcher.
//
// An unknown email returns ErrAccountNotFound unless the service is configured
// to conceal it, in which case it succeeds without side effects. Dispatch
// failures are logged and never surfaced.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if s.config.Auth.ConcealUnknownResetEmail {
				s.logger.Info("password reset requested for unknown email")
				return nil
			}
			return ErrAccountNotFound
		}
		s.logger.Error("failed to find user by email for password reset", "error", err)
		return ErrInternal.WithCause(err)
	}

	token, err := auth.NewResetToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", "error", err)
		return ErrInternal.WithCause(err)
	}

	expires := s.now().Add(s.resetTokenTTL())
	if err := s.repo.SetPasswordResetToken(ctx, user.ID, token, expires); err != nil {
		s.logger.Error("failed to store reset token", "user_id", user.ID, "error", err)
		return ErrInternal.WithCause(err)
	}

	link, err := s.resetLink(token)
	if err != nil {
		s.logger.Error("failed to build reset link", "error", err)
		return ErrInternal.WithCause(err)
	}

	dctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout())
	defer cancel()
	if err := s.dispatcher.SendPasswordResetLink(dctx, user.Email, link); err != nil {
		s.logger.Error("failed to dispatch reset link", "user_id", user.ID, "error", err)
	}

	s.logger.Info("password reset link issued", "user_id", user.ID, "expires_at", expires)
	return nil
}

// ChangePassword redeems a reset token. Unknown, expired and already redeemed
// tokens all yield ErrInvalidResetToken.
func (s *service) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if input.NewPassword != input.ConfirmNewPassword {
		return ErrPasswordMismatch
	}
	if err := auth.CheckPasswordPolicy(input.NewPassword); err != nil {
		return ErrWeakPassword.WithDetail(err.Error())
	}
	if input.Token == "" {
		return ErrInvalidResetToken
	}

	user, err := s.repo.FindByPasswordResetToken(ctx, input.Token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		s.logger.Error("failed to find user by reset token", "error", err)
		return ErrPasswordUpdateFailed.WithCause(err)
	}
	if !user.HasActiveResetToken(s.now()) {
		return ErrInvalidResetToken
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", "error", err)
		return ErrPasswordUpdateFailed.WithCause(err)
	}

	// The token is checked again by the conditional update; a concurrent
	// redemption that got there first leaves nothing to match.
	redeemed, err := s.repo.RedeemPasswordResetToken(ctx, input.Token, hash, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		s.logger.Error("failed to update password", "user_id", user.ID, "error", err)
		return ErrPasswordUpdateFailed.WithCause(err)
	}

	s.logger.Info("password reset completed", "user_id", redeemed.ID)
	return nil
}

// resetLink builds <frontend-origin>/reset_password/<token>.
func (s *service) resetLink(token string) (string, error) {
	return url.JoinPath(s.config.App.FrontendURL, "reset_password", token)
}
