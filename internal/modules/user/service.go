package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/delordemm1/cryptjournal-api/internal/auth"
	"github.com/delordemm1/cryptjournal-api/internal/config"
)

// Service defines the interface for the user module's business logic.
// It orchestrates the flow of data between the handlers and the repository,
// and contains the core business rules.
type Service interface {
	// Credential lifecycle
	SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, input ChangePasswordInput) error

	// Profile
	GetProfile(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*User, error)
}

// PasswordHasher hashes and verifies passwords. auth.PasswordHasher satisfies it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer signs session tokens. auth.TokenManager satisfies it.
type TokenIssuer interface {
	Issue(userID, email string) (string, time.Time, error)
}

// ResetLinkDispatcher delivers a password reset link to an email address.
type ResetLinkDispatcher interface {
	SendPasswordResetLink(ctx context.Context, email, link string) error
}

// service implements the Service interface.
type service struct {
	repo       Repository
	logger     *slog.Logger
	config     *config.Config
	hasher     PasswordHasher
	tokens     TokenIssuer
	dispatcher ResetLinkDispatcher
	now        func() time.Time

	// dummyHash is compared against when the login email is unknown so both
	// outcomes cost one bcrypt comparison.
	dummyHash string
}

// Config holds the dependencies for the user service.
type Config struct {
	Repo       Repository
	Logger     *slog.Logger
	Config     *config.Config
	Hasher     PasswordHasher
	Tokens     TokenIssuer
	Dispatcher ResetLinkDispatcher
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new user service with the given dependencies.
func NewService(cfg *Config) Service {
	s := &service{
		repo:       cfg.Repo,
		logger:     cfg.Logger,
		config:     cfg.Config,
		hasher:     cfg.Hasher,
		tokens:     cfg.Tokens,
		dispatcher: cfg.Dispatcher,
		now:        cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.hasher == nil {
		s.hasher = auth.NewPasswordHasher(s.config.Auth.BcryptCost)
	}
	if hash, err := s.hasher.Hash("dummy-password-for-timing"); err == nil {
		s.dummyHash = hash
	}
	return s
}

func (s *service) resetTokenTTL() time.Duration {
	if s.config.Auth.ResetTokenTTL > 0 {
		return s.config.Auth.ResetTokenTTL
	}
	return auth.DefaultResetTokenTTL
}

func (s *service) dispatchTimeout() time.Duration {
	if s.config.Mail.DispatchTimeout > 0 {
		return s.config.Mail.DispatchTimeout
	}
	return 10 * time.Second
}
