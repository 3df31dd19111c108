package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the llmsvc server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port int
	Env  string
	// Domain scopes the session cookie. Empty leaves the cookie host-only.
	Domain     string
	CookieName string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type LLMConfig struct {
	Provider         string
	AWSRegion        string
	InferenceTimeout time.Duration
}

type EmailConfig struct {
	Enabled  bool
	Sender   string
	QueueKey string
}

var validProviders = map[string]bool{
	"bedrock": true,
	"mock":    true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:       envInt("LLMSVC_PORT", 8080),
			Env:        envString("LLMSVC_ENV", "development"),
			Domain:     os.Getenv("LLMSVC_DOMAIN"),
			CookieName: envString("LLMSVC_COOKIE_NAME", "SESSION-TOKEN"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		LLM: LLMConfig{
			Provider:         envString("LLMSVC_LLM_PROVIDER", "bedrock"),
			AWSRegion:        envString("AWS_REGION", "us-east-1"),
			InferenceTimeout: envDurationSecs("LLMSVC_INFERENCE_TIMEOUT_SECS", 60*time.Second),
		},
		Email: EmailConfig{
			Enabled:  envBool("LLMSVC_EMAIL_ENABLED", false),
			Sender:   os.Getenv("LLMSVC_EMAIL_SENDER"),
			QueueKey: envString("LLMSVC_EMAIL_QUEUE_KEY", "llmsvc:notifications"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode. It
// relaxes the session cookie's SameSite policy for cross-origin consoles.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("LLMSVC_LLM_PROVIDER must be one of bedrock, mock; got %q", c.LLM.Provider)
	}

	if c.Email.Enabled && c.Email.Sender == "" {
		return fmt.Errorf("LLMSVC_EMAIL_SENDER is required when LLMSVC_EMAIL_ENABLED is true")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
