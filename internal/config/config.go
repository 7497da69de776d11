package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Env              string `mapstructure:"APP_ENV"` // development | production
	Port             int    `mapstructure:"SERVER_PORT"`
	AllowedOrigins   string `mapstructure:"ALLOWED_ORIGINS"`
	RequestBodyLimit int64  `mapstructure:"REQUEST_BODY_LIMIT"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Events. An empty REDIS_URL disables publishing.
	RedisURL      string `mapstructure:"REDIS_URL"`
	EventsChannel string `mapstructure:"EVENTS_CHANNEL"`

	// Inventory
	DefaultLocation string `mapstructure:"DEFAULT_LOCATION"`
}

var defaults = map[string]any{
	"APP_ENV":            "development",
	"SERVER_PORT":        8080,
	"ALLOWED_ORIGINS":    "",
	"REQUEST_BODY_LIMIT": int64(1 << 20),
	"DATABASE_URL":       "",
	"DB_MAX_CONNS":       int32(10),
	"LOG_LEVEL":          "info",
	"REDIS_URL":          "",
	"EVENTS_CHANNEL":     "stock-ledger.events",
	"DEFAULT_LOCATION":   "MAIN",
}

// Load reads an optional .env file into the process environment, then binds
// every key from the environment over its default.
func Load(envFiles ...string) (*Config, error) {
	// Missing .env files are fine; real deployments set the environment directly.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.DefaultLocation = strings.ToUpper(strings.TrimSpace(cfg.DefaultLocation))
	return cfg, nil
}

// Validate checks the settings every database-backed command needs.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.RequestBodyLimit <= 0 {
		return fmt.Errorf("REQUEST_BODY_LIMIT must be positive, got %d", c.RequestBodyLimit)
	}
	if c.DefaultLocation == "" {
		return fmt.Errorf("DEFAULT_LOCATION must not be empty")
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS on commas. An empty result disables CORS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
