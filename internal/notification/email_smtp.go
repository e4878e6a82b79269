package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mail "github.com/xhit/go-simple-mail/v2"
)

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// smtpEmailSender is the concrete implementation for sending emails via SMTP.
type smtpEmailSender struct {
	server *mail.SMTPServer
	from   string
	log    *slog.Logger
}

// NewSMTPEmailSender creates a new sender that uses an SMTP server. Port 465
// uses implicit TLS, other ports STARTTLS. An empty username disables auth.
func NewSMTPEmailSender(cfg SMTPConfig, log *slog.Logger) EmailSender {
	server := mail.NewSMTPClient()
	server.Host = cfg.Host
	server.Port = cfg.Port
	server.Username = cfg.Username
	server.Password = cfg.Password
	server.Encryption = mail.EncryptionSTARTTLS
	if cfg.Port == 465 {
		server.Encryption = mail.EncryptionSSLTLS
	}
	if cfg.Username == "" {
		server.Authentication = mail.AuthNone
	}
	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	return &smtpEmailSender{
		server: server,
		from:   cfg.From,
		log:    log,
	}
}

func (s *smtpEmailSender) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	smtpClient, err := s.server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	msg := mail.NewMSG()
	msg.SetFrom(s.from).AddTo(email.To).SetSubject(email.Subject)
	switch {
	case email.Text != "" && email.HTML != "":
		msg.SetBody(mail.TextPlain, email.Text)
		msg.AddAlternative(mail.TextHTML, email.HTML)
	case email.HTML != "":
		msg.SetBody(mail.TextHTML, email.HTML)
	default:
		msg.SetBody(mail.TextPlain, email.Text)
	}
	if msg.Error != nil {
		return fmt.Errorf("failed to build email: %w", msg.Error)
	}

	if err = msg.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Info("email sent via smtp", "subject", email.Subject)
	return nil
}
