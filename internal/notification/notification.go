package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/delordemm1/cryptjournal-api/internal/notification/templates"
)

// Email is a rendered message ready for a transport.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// EmailSender delivers a rendered email. Implementations: SMTP, Redis queue, log.
type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// ErrNoRecipient is returned when an email has no recipient address.
var ErrNoRecipient = errors.New("email has no recipient")

// Service is the main interface for the notification system.
type Service interface {
	// Send delivers email through the configured transport and waits for the outcome.
	Send(ctx context.Context, email Email) error
	// SendPasswordResetLink renders and sends the password reset email.
	SendPasswordResetLink(ctx context.Context, to, link string) error
}

// Config carries the values the templates need.
type Config struct {
	AppName       string
	SupportEmail  string
	ResetTokenTTL time.Duration
}

// service is the concrete implementation.
type service struct {
	log    *slog.Logger
	sender EmailSender
	engine *templates.Engine
	cfg    Config
}

// NewService creates a new notification service. A nil engine uses the
// embedded templates.
func NewService(log *slog.Logger, sender EmailSender, engine *templates.Engine, cfg Config) Service {
	if engine == nil {
		engine = templates.NewEngine(templates.Config{}, log)
	}
	return &service{
		log:    log,
		sender: sender,
		engine: engine,
		cfg:    cfg,
	}
}

// Send delivers email synchronously so the caller can bound it with ctx.
func (s *service) Send(ctx context.Context, email Email) error {
	if strings.TrimSpace(email.To) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.log.Info("dispatching email notification", "subject", email.Subject)

	// Not every transport honours ctx, so the wait itself is bounded.
	errc := make(chan error, 1)
	go func() { errc <- s.sender.Send(ctx, email) }()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email: %w", ctx.Err())
	}
}

// SendPasswordResetLink satisfies the user module's reset link dispatcher.
func (s *service) SendPasswordResetLink(ctx context.Context, to, link string) error {
	minutes := int(s.cfg.ResetTokenTTL / time.Minute)
	if minutes <= 0 {
		minutes = 15
	}

	rendered, err := templates.Render(ctx, s.engine, templates.PasswordResetLink, templates.PasswordResetLinkData{
		AppName:          s.cfg.AppName,
		ResetURL:         link,
		ExpiresInMinutes: minutes,
		SupportEmail:     s.cfg.SupportEmail,
	})
	if err != nil {
		return fmt.Errorf("render password reset email: %w", err)
	}

	return s.Send(ctx, Email{
		To:      to,
		Subject: rendered.Subject,
		HTML:    rendered.EmailHTML,
		Text:    rendered.EmailText,
	})
}
