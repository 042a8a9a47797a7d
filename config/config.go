package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Auth      AuthConfig
	OAuth     OAuthConfig
	CORS      CORSConfig
	S3        S3Config
	Realtime  RealtimeConfig
	Redis     RedisConfig
	Messaging MessagingConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port        string `env:"SERVER_PORT" envDefault:"8080"`
	GinMode     string `env:"GIN_MODE" envDefault:"debug"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	// SiteURL is the storefront origin used for auth redirect links.
	SiteURL string `env:"SITE_URL" envDefault:"http://localhost:5173"`
}

// BackendConfig points at the hosted backend: a Postgres URL and the
// project key used to sign session tokens.
type BackendConfig struct {
	URL          string `env:"BACKEND_URL"`
	Key          string `env:"BACKEND_KEY"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
}

type AuthConfig struct {
	AccessTokenExpiry  time.Duration `env:"AUTH_ACCESS_TOKEN_EXPIRY" envDefault:"1h"`
	RefreshTokenExpiry time.Duration `env:"AUTH_REFRESH_TOKEN_EXPIRY" envDefault:"720h"`
	// RefreshMargin is how long before access token expiry a session refreshes itself.
	RefreshMargin time.Duration `env:"AUTH_REFRESH_MARGIN" envDefault:"1m"`
	ConfirmEmail  bool          `env:"AUTH_CONFIRM_EMAIL" envDefault:"false"`
}

type OAuthConfig struct {
	Google OAuthProviderConfig `envPrefix:"GOOGLE_"`
}

type OAuthProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	AuthURL      string `env:"AUTH_URL" envDefault:"https://accounts.google.com/o/oauth2/auth"`
	TokenURL     string `env:"TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	UserInfoURL  string `env:"USERINFO_URL" envDefault:"https://openidconnect.googleapis.com/v1/userinfo"`
	// RedirectURL is this API's callback route registered with the provider.
	RedirectURL string `env:"REDIRECT_URL" envDefault:"http://localhost:8080/api/v1/auth/callback"`
}

// Enabled reports whether the provider has client credentials.
func (p OAuthProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

type S3Config struct {
	Region          string `env:"AWS_REGION" envDefault:"ap-south-1"`
	Bucket          string `env:"AWS_S3_BUCKET" envDefault:"product-images"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	BaseURL         string `env:"AWS_S3_BASE_URL"` // CloudFront or S3 direct URL
}

type RealtimeConfig struct {
	Driver  string `env:"REALTIME_DRIVER" envDefault:"memory"` // memory, redis, nats
	NATSURL string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type MessagingConfig struct {
	WhatsAppNumber string `env:"WHATSAPP_NUMBER"`
}

type SchedulerConfig struct {
	CleanupSchedule string `env:"CLEANUP_SCHEDULE" envDefault:"@every 1h"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Warnings lists settings that are optional at startup but disable a feature.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Messaging.WhatsAppNumber == "" {
		warnings = append(warnings, "WHATSAPP_NUMBER is not set; contact links are disabled")
	}
	if !c.OAuth.Google.Enabled() {
		warnings = append(warnings, "GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET are not set; Google sign-in is disabled")
	}
	return warnings
}
