// Package config loads the console's layered configuration: an optional
// config.toml, an optional config.<env>.toml overlay, then CONSOLE_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/console/internal/session"
	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/pkg/pagination"
	"github.com/JaimeStill/console/pkg/source"
	"github.com/JaimeStill/console/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvConsoleEnv             = "CONSOLE_ENV"
	EnvConsoleShutdownTimeout = "CONSOLE_SHUTDOWN_TIMEOUT"
	EnvConsoleVersion         = "CONSOLE_VERSION"
)

var sourceEnv = &source.Env{
	BaseURL:      "CONSOLE_SOURCE_BASE_URL",
	Timeout:      "CONSOLE_SOURCE_TIMEOUT",
	WriteThrough: "CONSOLE_SOURCE_WRITE_THROUGH",
}

var tablesEnv = &tables.Env{
	SessionTTL:   "CONSOLE_TABLES_SESSION_TTL",
	MaxSessions:  "CONSOLE_TABLES_MAX_SESSIONS",
	FetchTimeout: "CONSOLE_TABLES_FETCH_TIMEOUT",
	Pagination: &pagination.ConfigEnv{
		DefaultPageSize: "CONSOLE_PAGINATION_DEFAULT_PAGE_SIZE",
		MaxPageSize:     "CONSOLE_PAGINATION_MAX_PAGE_SIZE",
	},
}

var authEnv = &session.Env{
	Secret:           "CONSOLE_AUTH_SECRET",
	MockPassword:     "CONSOLE_AUTH_MOCK_PASSWORD",
	CookieSecure:     "CONSOLE_AUTH_COOKIE_SECURE",
	Expiry:           "CONSOLE_AUTH_EXPIRY",
	OIDCIssuer:       "CONSOLE_AUTH_OIDC_ISSUER",
	OIDCClientID:     "CONSOLE_AUTH_OIDC_CLIENT_ID",
	OIDCClientSecret: "CONSOLE_AUTH_OIDC_CLIENT_SECRET",
	OIDCRedirectURL:  "CONSOLE_AUTH_OIDC_REDIRECT_URL",
}

var storageEnv = &storage.Env{
	Backend:          "CONSOLE_STORAGE_BACKEND",
	ContainerName:    "CONSOLE_STORAGE_CONTAINER_NAME",
	ConnectionString: "CONSOLE_STORAGE_CONNECTION_STRING",
}

// Config is the root configuration for the console service.
type Config struct {
	Server          ServerConfig   `toml:"server"`
	Source          source.Config  `toml:"source"`
	Tables          tables.Config  `toml:"tables"`
	Auth            session.Config `toml:"auth"`
	Storage         storage.Config `toml:"storage"`
	API             APIConfig      `toml:"api"`
	ShutdownTimeout string         `toml:"shutdown_timeout"`
	Version         string         `toml:"version"`
}

// Env returns the CONSOLE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvConsoleEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFrom(BaseConfigFile)
}

// LoadFrom is Load with an explicit base file path. The overlay is looked up
// next to it.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Source.Merge(&overlay.Source)
	c.Tables.Merge(&overlay.Tables)
	c.Auth.Merge(&overlay.Auth)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
}

// Finalize applies defaults, environment overrides and validation to every
// section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Source.Finalize(sourceEnv); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Tables.Finalize(tablesEnv); err != nil {
		return fmt.Errorf("tables: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvConsoleShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvConsoleVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvConsoleEnv)
	if env == "" {
		return ""
	}

	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
