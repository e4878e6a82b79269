package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Mail transports understood by MAIL_TRANSPORT.
const (
	MailTransportSMTP  = "smtp"
	MailTransportRedis = "redis"
	MailTransportLog   = "log"
)

// Config holds all the configuration for the application.
type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Redis     RedisConfig    `mapstructure:"redis"`
	App       AppConfig      `mapstructure:"app"`
	Auth      AuthConfig     `mapstructure:"auth"`
	Mail      MailConfig     `mapstructure:"mail"`
	SMTP      SMTPConfig     `mapstructure:"smtp"`
	JWTSecret string         `mapstructure:"jwtsecret"`
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// AppConfig describes the product the API serves.
type AppConfig struct {
	Name string `mapstructure:"name"`
	// FrontendURL is the SPA origin. Reset links point at <FrontendURL>/reset_password/<token>.
	FrontendURL string `mapstructure:"frontendurl"`
}

// AuthConfig tunes the credential lifecycle.
type AuthConfig struct {
	SessionTTL    time.Duration `mapstructure:"sessionttl"`
	ResetTokenTTL time.Duration `mapstructure:"resettokenttl"`
	BcryptCost    int           `mapstructure:"bcryptcost"`
	// ConcealUnknownResetEmail makes forgot-password answer with the generic
	// success message even when no account matches the email.
	ConcealUnknownResetEmail bool `mapstructure:"concealunknownresetemail"`
}

// MailConfig selects how reset links are delivered.
type MailConfig struct {
	Transport       string        `mapstructure:"transport"`
	DispatchTimeout time.Duration `mapstructure:"dispatchtimeout"`
	QueueKey        string        `mapstructure:"queuekey"`
}

type SMTPConfig struct {
	From     string `mapstructure:"from"`
	Password string `mapstructure:"password"`
	Username string `mapstructure:"username"`
	Port     int    `mapstructure:"port"`
	Host     string `mapstructure:"host"`
}

var envBindings = map[string]string{
	"server.port":                   "SERVER_PORT",
	"server.env":                    "SERVER_ENV",
	"database.url":                  "DATABASE_URL",
	"redis.url":                     "REDIS_URL",
	"jwtsecret":                     "JWT_SECRET",
	"app.name":                      "APP_NAME",
	"app.frontendurl":               "FRONTEND_URL",
	"auth.sessionttl":               "AUTH_SESSION_TTL",
	"auth.resettokenttl":            "AUTH_RESET_TOKEN_TTL",
	"auth.bcryptcost":               "AUTH_BCRYPT_COST",
	"auth.concealunknownresetemail": "AUTH_CONCEAL_UNKNOWN_RESET_EMAIL",
	"mail.transport":                "MAIL_TRANSPORT",
	"mail.dispatchtimeout":          "MAIL_DISPATCH_TIMEOUT",
	"mail.queuekey":                 "MAIL_QUEUE_KEY",
	"smtp.host":                     "SMTP_HOST",
	"smtp.port":                     "SMTP_PORT",
	"smtp.username":                 "SMTP_USERNAME",
	"smtp.password":                 "SMTP_PASSWORD",
	"smtp.from":                     "SMTP_FROM",
}

// Load creates a new Config object from environment variables and an optional .env file.
func Load() *Config {
	// Load .env into process environment for BindEnv to work with file-based envs
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ godotenv could not load .env: %v", err)
	} else {
		log.Printf("ℹ️ .env loaded into process environment via godotenv")
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	// Use a replacer to map env vars like SERVER_PORT to Server.Port
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// We can still proceed if all config is set via environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("❌ Error reading config file: %s", err)
		}
		log.Printf("⚠️ .env file not found, relying on environment variables")
	} else {
		log.Printf("ℹ️ Using config file: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	log.Printf("🔎 Config after Unmarshal: Server.Port=%q Server.Env=%q Mail.Transport=%q FrontendURL=%q JWTSecretEmpty=%t",
		cfg.Server.Port,
		cfg.Server.Env,
		cfg.Mail.Transport,
		cfg.App.FrontendURL,
		cfg.JWTSecret == "",
	)

	log.Println("✅ Configuration loaded successfully")
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.env", "development")
	v.SetDefault("app.name", "Crypt Journal")
	v.SetDefault("app.frontendurl", "http://localhost:3000")
	v.SetDefault("auth.sessionttl", 7*24*time.Hour)
	v.SetDefault("auth.resettokenttl", 15*time.Minute)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("auth.concealunknownresetemail", false)
	v.SetDefault("mail.transport", MailTransportLog)
	v.SetDefault("mail.dispatchtimeout", 10*time.Second)
	v.SetDefault("mail.queuekey", "mail:outbox")
}

// Validate reports configuration that would leave the service unable to run.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.Mail.Transport {
	case MailTransportSMTP:
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			errs = append(errs, errors.New("SMTP_HOST and SMTP_FROM are required for the smtp mail transport"))
		}
	case MailTransportRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis mail transport"))
		}
	case MailTransportLog:
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the server runs with SERVER_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
