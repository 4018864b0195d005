// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/sitekit/sitekit/internal/mail"
)

// Storage selects where subscribers, tokens and pending requests live.
type Storage struct {
	Backend     string `env:"STORAGE_BACKEND" envDefault:"file"`
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`
	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	// "store" keeps the subscriber list as one JSON blob in the store,
	// "postgres" uses the relational subscribers table.
	SubscriberBackend string `env:"SUBSCRIBER_BACKEND" envDefault:"store"`
}

// NeedsDatabase reports whether a Postgres pool must be opened.
func (s Storage) NeedsDatabase() bool {
	return s.Backend == "postgres" || s.SubscriberBackend == "postgres"
}

// Mail holds SMTP and sender identity settings.
type Mail struct {
	SMTPHost  string `env:"SMTP_HOST"`
	SMTPPort  int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser  string `env:"SMTP_USER"`
	SMTPPass  string `env:"SMTP_PASS"`
	FromEmail string `env:"FROM_EMAIL"`
	FromName  string `env:"FROM_NAME" envDefault:"Website"`
}

// SMTP converts the settings for the mail package.
func (m Mail) SMTP() mail.Config {
	return mail.Config{
		Host:      m.SMTPHost,
		Port:      m.SMTPPort,
		User:      m.SMTPUser,
		Pass:      m.SMTPPass,
		FromEmail: m.FromEmail,
		FromName:  m.FromName,
	}
}

// Site describes the public website the service backs.
type Site struct {
	// Base URL used in approve/reject links and email buttons
	WebsiteURL string `env:"WEBSITE_URL" envDefault:"http://localhost:8080"`
	// Page unlocked by an access token
	PrivatePath string `env:"PRIVATE_PATH" envDefault:"/thoughts.html"`
}

// PrivateURL returns the absolute URL of the token-gated page.
func (s Site) PrivateURL() string {
	return strings.TrimRight(s.WebsiteURL, "/") + "/" + strings.TrimLeft(s.PrivatePath, "/")
}

// Config holds all API server configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	Storage Storage
	Mail    Mail
	Site    Site

	// Recipient of token approval requests
	AdminEmail string `env:"ADMIN_EMAIL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting of public POST endpoints, per client IP
	RateLimitEnabled bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     float64 `env:"RATE_LIMIT_RPS" envDefault:"1"`
	RateLimitBurst   int     `env:"RATE_LIMIT_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins, "*" allows any
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Request body size limit in bytes (default 64KB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`

	// Argon2id hash guarding the subscriber export; empty leaves it open
	ExportSecretHash string `env:"EXPORT_SECRET_HASH"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// Load parses environment variables and returns a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Notify configures the subscriber notification command.
type Notify struct {
	Storage Storage
	Mail    Mail
	Site    Site

	// Pause between two sends
	Delay time.Duration `env:"NOTIFY_DELAY" envDefault:"100ms"`
	// Optional JSON array of emails used instead of the store
	SubscribersFile string `env:"SUBSCRIBERS_FILE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Validate reports the first missing SMTP setting.
func (n *Notify) Validate() error {
	missing := make([]string, 0, 3)
	if n.Mail.SMTPHost == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if n.Mail.SMTPUser == "" {
		missing = append(missing, "SMTP_USER")
	}
	if n.Mail.SMTPPass == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing SMTP configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LoadNotify reads .env files if present, then the environment.
func LoadNotify(files ...string) (*Notify, error) {
	if err := loadDotEnv(files...); err != nil {
		return nil, err
	}
	cfg := &Notify{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// S3 configures the optional gallery mirror bucket.
type S3 struct {
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	Prefix          string `env:"S3_PREFIX" envDefault:"gallery/"`
}

// Enabled reports whether a bucket is configured.
func (s S3) Enabled() bool {
	return s.Bucket != ""
}

// Sync configures the content sync command.
type Sync struct {
	NotionToken             string `env:"NOTION_TOKEN"`
	NotionDatabaseID        string `env:"NOTION_DATABASE_ID"`
	NotionGalleryDatabaseID string `env:"NOTION_GALLERY_DATABASE_ID"`

	// Directory containing thoughts.html, gallery.html and assets/
	SiteDir string `env:"SITE_DIR" envDefault:"."`

	HTTPTimeout time.Duration `env:"SYNC_HTTP_TIMEOUT" envDefault:"30s"`

	S3 S3

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Validate checks the settings needed for the given target.
func (s *Sync) Validate(thoughts, gallery bool) error {
	if s.NotionToken == "" {
		return errors.New("NOTION_TOKEN is required")
	}
	if thoughts && s.NotionDatabaseID == "" {
		return errors.New("NOTION_DATABASE_ID is required")
	}
	if gallery && s.NotionGalleryDatabaseID == "" {
		return errors.New("NOTION_GALLERY_DATABASE_ID is required")
	}
	return nil
}

// LoadSync reads .env files if present, then the environment.
func LoadSync(files ...string) (*Sync, error) {
	if err := loadDotEnv(files...); err != nil {
		return nil, err
	}
	cfg := &Sync{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads the given files (default ".env") without overriding
// variables already set. Missing files are ignored.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
