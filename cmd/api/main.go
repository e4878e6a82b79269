package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/delordemm1/cryptjournal-api/internal/auth"
	"github.com/delordemm1/cryptjournal-api/internal/cache"
	"github.com/delordemm1/cryptjournal-api/internal/config"
	"github.com/delordemm1/cryptjournal-api/internal/database"
	"github.com/delordemm1/cryptjournal-api/internal/metrics"
	"github.com/delordemm1/cryptjournal-api/internal/modules/user"
	"github.com/delordemm1/cryptjournal-api/internal/notification"
	"github.com/delordemm1/cryptjournal-api/internal/notification/templates"
	"github.com/delordemm1/cryptjournal-api/internal/server"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on, overrides SERVER_PORT" short:"p"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		level := slog.LevelInfo
		if !cfg.IsProduction() {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env, "mail_transport", cfg.Mail.Transport)

		ctx := context.Background()

		// --- Database ---
		dbPool, err := database.NewPostgresPool(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		hooks.OnStop(dbPool.Close)
		logger.Info("successfully connected to postgres database")

		// --- Mail transport ---
		sender, closeSender, err := newEmailSender(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to set up mail transport", "error", err)
			os.Exit(1)
		}
		hooks.OnStop(closeSender)

		notifier := notification.NewService(logger, sender, templates.NewEngine(templates.Config{}, logger), notification.Config{
			AppName:       cfg.App.Name,
			SupportEmail:  cfg.SMTP.From,
			ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		})

		// --- Module Initialization (Bottom-Up) ---
		tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.Auth.SessionTTL)
		userService := user.NewService(&user.Config{
			Repo:       user.NewRepository(dbPool),
			Logger:     logger,
			Config:     cfg,
			Hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
			Tokens:     tokens,
			Dispatcher: notifier,
		})
		router := server.New(cfg, logger, userService, tokens, metrics.New())

		port := options.Port
		if port == 0 {
			if port, err = strconv.Atoi(cfg.Server.Port); err != nil {
				logger.Error("invalid SERVER_PORT", "value", cfg.Server.Port, "error", err)
				os.Exit(1)
			}
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		hooks.OnStart(func() {
			logger.Info("starting server", "port", port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown failed", "error", err)
			}
		})
	})
	cli.Run()
}

// newEmailSender picks the transport named by MAIL_TRANSPORT.
func newEmailSender(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notification.EmailSender, func(), error) {
	switch cfg.Mail.Transport {
	case config.MailTransportSMTP:
		return notification.NewSMTPEmailSender(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger), func() {}, nil
	case config.MailTransportRedis:
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("successfully connected to redis")
		return notification.NewQueueEmailSender(rdb, cfg.Mail.QueueKey), func() { _ = rdb.Close() }, nil
	default:
		logger.Warn("reset emails are only logged, set MAIL_TRANSPORT to deliver them")
		return notification.NewLogEmailSender(logger), func() {}, nil
	}
}
