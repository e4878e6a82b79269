package user

import (
	"time"
)

// DefaultUserType is assigned to every account created through sign-up.
const DefaultUserType = "user"

// User represents a row of the users table.
// This is the core entity for the user module, used across the repository, service, and handler layers.
type User struct {
	ID                   string     `db:"id"`
	FirstName            string     `db:"first_name"`
	LastName             string     `db:"last_name"`
	Email                string     `db:"email"`
	PasswordHash         string     `db:"password"`
	PhoneNumber          string     `db:"phone_number"`
	UserType             string     `db:"user_type"`
	JoinDate             time.Time  `db:"join_date"`
	LastLogon            time.Time  `db:"last_logon"`
	MFAEnabled           bool       `db:"mfa_enabled"`
	FailedLoginAttempts  int        `db:"failed_login_attempts"`
	LockoutUntil         *time.Time `db:"lockout_until"`
	ResetPasswordToken   *string    `db:"reset_password_token"`
	ResetPasswordExpires *time.Time `db:"reset_password_expires"`
}

// HasActiveResetToken reports whether a reset token is stored and still
// redeemable at now.
func (u *User) HasActiveResetToken(now time.Time) bool {
	return u.ResetPasswordToken != nil && u.ResetPasswordExpires != nil && now.Before(*u.ResetPasswordExpires)
}

// SignUpInput is the sign-up form.
type SignUpInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string
	Password string
}

// ChangePasswordInput is the reset-redemption form.
type ChangePasswordInput struct {
	NewPassword        string
	ConfirmNewPassword string
	Token              string
}

// UpdateProfileInput holds the optional profile fields; nil means unchanged.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	MFAEnabled  *bool
}

// IsEmpty reports whether no field is set.
func (in UpdateProfileInput) IsEmpty() bool {
	return in.FirstName == nil && in.LastName == nil && in.Email == nil && in.PhoneNumber == nil && in.MFAEnabled == nil
}

// AuthResult is returned by the flows that authenticate the caller.
type AuthResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}
