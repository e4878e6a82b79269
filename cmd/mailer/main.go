package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/delordemm1/cryptjournal-api/internal/cache"
	"github.com/delordemm1/cryptjournal-api/internal/config"
	"github.com/delordemm1/cryptjournal-api/internal/notification"
)

// mailer drains the Redis mail queue filled by MAIL_TRANSPORT=redis and
// delivers each email over SMTP.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	if cfg.Redis.URL == "" || cfg.SMTP.Host == "" || cfg.SMTP.From == "" {
		logger.Error("REDIS_URL, SMTP_HOST and SMTP_FROM are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	smtp := notification.NewSMTPEmailSender(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, logger)

	consumer := notification.NewQueueConsumer(rdb, cfg.Mail.QueueKey, smtp, logger)
	if err := consumer.Run(ctx); err != nil {
		logger.Error("mailer stopped with error", "error", err)
		os.Exit(1)
	}
}
