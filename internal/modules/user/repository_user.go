package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// userColumns is the explicit projection scanned into User.
var userColumns = []string{
	"id", "first_name", "last_name", "email", "password", "phone_number", "user_type",
	"join_date", "last_logon", "mfa_enabled", "failed_login_attempts", "lockout_until",
	"reset_password_token", "reset_password_expires",
}

// Create inserts a new user record into the database. A duplicate email is
// reported as ErrEmailExists.
func (r *repository) Create(ctx context.Context, user *User) error {
	query, args, err := r.psql.Insert("users").
		Columns(
			"id", "first_name", "last_name", "email", "password", "phone_number", "user_type",
			"join_date", "last_logon", "mfa_enabled", "failed_login_attempts",
		).
		Values(
			user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.PhoneNumber, user.UserType,
			user.JoinDate, user.LastLogon, user.MFAEnabled, user.FailedLoginAttempts,
		).
		ToSql()
	if err != nil {
		return err
	}

	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists.WithCause(err)
		}
		return err
	}
	return nil
}

// FindByEmail retrieves a user by exact email match.
// It returns ErrNotFound if no user is found.
func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"email": email})
}

// FindByID retrieves a user by their unique ID.
// It returns ErrNotFound if no user is found.
func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByPasswordResetToken finds the user whose stored reset token equals token.
// Expiry is not checked here.
func (r *repository) FindByPasswordResetToken(ctx context.Context, token string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"reset_password_token": token})
}

// UpdateProfile applies the non-nil fields of input and returns the updated row.
func (r *repository) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*User, error) {
	if input.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	q := r.psql.Update("users")
	if input.FirstName != nil {
		q = q.Set("first_name", *input.FirstName)
	}
	if input.LastName != nil {
		q = q.Set("last_name", *input.LastName)
	}
	if input.Email != nil {
		q = q.Set("email", *input.Email)
	}
	if input.PhoneNumber != nil {
		q = q.Set("phone_number", *input.PhoneNumber)
	}
	if input.MFAEnabled != nil {
		q = q.Set("mfa_enabled", *input.MFAEnabled)
	}

	query, args, err := q.Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		if isUniqueViolation(err) {
			return nil, ErrEmailExists.WithCause(err)
		}
		return nil, err
	}
	return &user, nil
}

// TouchLastLogon records a successful login.
func (r *repository) TouchLastLogon(ctx context.Context, id string, at time.Time) error {
	query, args, err := r.psql.Update("users").
		Set("last_logon", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPasswordResetToken stores token and its expiry on the user row,
// replacing any previous token.
func (r *repository) SetPasswordResetToken(ctx context.Context, userID, token string, expires time.Time) error {
	query, args, err := r.psql.Update("users").
		Set("reset_password_token", token).
		Set("reset_password_expires", expires).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RedeemPasswordResetToken sets the new password hash and clears the token in a
// single conditional UPDATE, so concurrent redemptions of the same token cannot
// both succeed.
func (r *repository) RedeemPasswordResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) (*User, error) {
	query, args, err := r.psql.Update("users").
		Set("password", newPasswordHash).
		Set("reset_password_token", nil).
		Set("reset_password_expires", nil).
		Where(squirrel.Eq{"reset_password_token": token}).
		Where(squirrel.Gt{"reset_password_expires": now}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &user, nil
}

// findOne is a helper method to find a single user by a given condition.
func (r *repository) findOne(ctx context.Context, condition squirrel.Sqlizer) (*User, error) {
	query, args, err := r.psql.Select(userColumns...).
		From("users").
		Where(condition).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
