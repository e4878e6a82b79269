package notification

import (
	"context"
	"log/slog"
)

// logEmailSender writes emails to the log instead of delivering them.
// Development only: the body contains live reset links.
type logEmailSender struct {
	log *slog.Logger
}

// NewLogEmailSender creates a sender that only logs.
func NewLogEmailSender(log *slog.Logger) EmailSender {
	return &logEmailSender{log: log}
}

func (s *logEmailSender) Send(ctx context.Context, email Email) error {
	s.log.Info("email not delivered, log transport",
		"to", email.To,
		"subject", email.Subject,
		"text", email.Text,
	)
	return nil
}
