package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from the environment once at startup.
type Config struct {
	HTTP      HTTPConfig
	Store     StoreConfig
	Chat      ChatConfig
	TTS       TTSConfig
	Auth      AuthConfig
	Companion CompanionConfig

	Timezone string `envconfig:"TIMEZONE" default:"Asia/Singapore"`
}

type HTTPConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`
	StaticDir   string `envconfig:"STATIC_DIR"`
}

type StoreConfig struct {
	Driver   string `envconfig:"STORE_DRIVER" default:"memory"`
	DSN      string `envconfig:"STORE_DSN" default:"hog.db"`
	RedisURL string `envconfig:"REDIS_URL"`
}

type ChatConfig struct {
	SeaLionKey   string `envconfig:"SEALION_API_KEY"`
	SeaLionURL   string `envconfig:"SEALION_URL"`
	GCPProjectID string `envconfig:"GCP_PROJECT_ID"`
	GCPRegion    string `envconfig:"GCP_REGION"`
}

type TTSConfig struct {
	APIKey   string `envconfig:"GOOGLE_TTS_API_KEY"`
	Endpoint string `envconfig:"GOOGLE_TTS_ENDPOINT"`
}

type AuthConfig struct {
	SiteUser      string `envconfig:"SITE_AUTH_USER"`
	SitePass      string `envconfig:"SITE_AUTH_PASS"`
	ClientKey     string `envconfig:"API_CLIENT_KEY"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	JWTSecret     string `envconfig:"JWT_SECRET"`
}

type CompanionConfig struct {
	Cooldown time.Duration `envconfig:"COMPANION_COOLDOWN" default:"9s"`
}

// LoadConfig processes the environment and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("STORE_DRIVER must be memory, sqlite, mysql or postgres, got %q", c.Store.Driver)
	}
	if c.Companion.Cooldown < 0 {
		return fmt.Errorf("COMPANION_COOLDOWN must not be negative")
	}
	if c.Auth.AdminPassword != "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD is set")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the configured day-boundary zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Origins splits CORS_ORIGINS into a list.
func (h HTTPConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(h.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}

// SiteAuthEnabled reports whether basic auth guards the site.
func (a AuthConfig) SiteAuthEnabled() bool {
	return a.SiteUser != "" && a.SitePass != ""
}
