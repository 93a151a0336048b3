package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppPort  string `env:"APP_PORT"  envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseDSN string `env:"DATABASE_DSN"`

	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"niveshx"`
	TokenTTL  time.Duration `env:"TOKEN_TTL"  envDefault:"24h"`

	OTPTTL            time.Duration `env:"OTP_TTL"             envDefault:"10m"`
	ResetTTL          time.Duration `env:"RESET_TTL"           envDefault:"1h"`
	RateLimitAttempts int           `env:"RATE_LIMIT_ATTEMPTS" envDefault:"5"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW"   envDefault:"15m"`

	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"Niveshx <no-reply@niveshx.app>"`

	OIDCName         string `env:"OIDC_NAME" envDefault:"google"`
	OIDCIssuer       string `env:"OIDC_ISSUER"`
	OIDCClientID     string `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `env:"OIDC_REDIRECT_URL"`
}

// Load parses the environment and rejects configurations the server
// cannot start with.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseDSN == "" {
			return Config{}, errors.New("DATABASE_DSN is required for the postgres store")
		}
	case StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.TokenTTL <= 0 || cfg.OTPTTL <= 0 || cfg.ResetTTL <= 0 {
		return Config{}, errors.New("token, otp and reset ttl must be positive")
	}
	if cfg.RateLimitAttempts <= 0 || cfg.RateLimitWindow <= 0 {
		return Config{}, errors.New("rate limit attempts and window must be positive")
	}

	return cfg, nil
}

// OIDCEnabled reports whether social sign-in is configured.
func (c Config) OIDCEnabled() bool {
	return c.OIDCIssuer != ""
}

// SMTPEnabled reports whether outbound mail goes through a real SMTP relay.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}
