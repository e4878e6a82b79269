package user

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/delordemm1/cryptjournal-api/internal/database"
)

// Repository is the Credential Store: persistence of accounts, password hashes
// and reset tokens.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*User, error)
	TouchLastLogon(ctx context.Context, id string, at time.Time) error

	SetPasswordResetToken(ctx context.Context, userID, token string, expires time.Time) error
	FindByPasswordResetToken(ctx context.Context, token string) (*User, error)
	// RedeemPasswordResetToken atomically replaces the password of the user
	// holding token and clears the token, provided it has not expired at now.
	// It returns ErrNotFound when no such unexpired token exists.
	RedeemPasswordResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) (*User, error)
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new user repository with the given database connection.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}
