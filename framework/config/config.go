package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
// Embed or extend it in your app's own config.
type Config struct {
	App     AppConfig
	Log     LogConfig
	Admin   AdminConfig
	Context ContextConfig
}

type AppConfig struct {
	Name    string `validate:"required"`
	Env     string `validate:"oneof=local production testing"`
	Debug   bool
	Version string
	// Addr is where the application's HTTP server listens. Empty disables it.
	Addr string `validate:"omitempty,hostname_port"`
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// AdminConfig controls the introspection HTTP server.
type AdminConfig struct {
	Enabled bool
	Addr    string `validate:"omitempty,hostname_port"`
}

// ContextConfig points at an optional YAML file loaded into the root Context.
type ContextConfig struct {
	File  string
	Watch bool
}

// Load reads .env (if present), populates a Config from environment
// variables and validates it.
// Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	cfg := &Config{
		App: AppConfig{
			Name:    Get("APP_NAME", "go-bootstrap"),
			Env:     strings.ToLower(Get("APP_ENV", "local")),
			Debug:   GetBool("APP_DEBUG", false),
			Version: Get("APP_VERSION", ""),
			Addr:    Get("APP_ADDR", ":8000"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(Get("LOG_LEVEL", "info")),
			Format: strings.ToLower(Get("LOG_FORMAT", "json")),
		},
		Admin: AdminConfig{
			Enabled: GetBool("ADMIN_ENABLED", false),
			Addr:    Get("ADMIN_ADDR", "127.0.0.1:8081"),
		},
		Context: ContextConfig{
			File:  Get("CONTEXT_FILE", ""),
			Watch: GetBool("CONTEXT_WATCH", false),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsLocal reports whether APP_ENV is "local".
func (c *Config) IsLocal() bool { return c.App.Env == "local" }

// Get returns a raw env value, falling back to defaultVal when it is unset
// or empty.
func Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// GetBool returns a bool env value. Unparseable values fall back to
// defaultVal.
func GetBool(key string, defaultVal bool) bool {
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
