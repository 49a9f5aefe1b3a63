package tables

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/console/pkg/pagination"
)

// Config holds workspace lifetime and table defaults.
type Config struct {
	SessionTTL   string            `toml:"session_ttl"`
	MaxSessions  int               `toml:"max_sessions"`
	FetchTimeout string            `toml:"fetch_timeout"`
	Pagination   pagination.Config `toml:"pagination"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	SessionTTL   string
	MaxSessions  string
	FetchTimeout string
	Pagination   *pagination.ConfigEnv
}

// SessionTTLDuration returns SessionTTL as a time.Duration.
func (c *Config) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

// FetchTimeoutDuration returns FetchTimeout as a time.Duration.
func (c *Config) FetchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.FetchTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	if err := c.validate(); err != nil {
		return err
	}

	var pagEnv *pagination.ConfigEnv
	if env != nil {
		pagEnv = env.Pagination
	}
	if err := c.Pagination.Finalize(pagEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.SessionTTL != "" {
		c.SessionTTL = overlay.SessionTTL
	}
	if overlay.MaxSessions != 0 {
		c.MaxSessions = overlay.MaxSessions
	}
	if overlay.FetchTimeout != "" {
		c.FetchTimeout = overlay.FetchTimeout
	}
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *Config) loadDefaults() {
	if c.SessionTTL == "" {
		c.SessionTTL = "30m"
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 1000
	}
	if c.FetchTimeout == "" {
		c.FetchTimeout = "15s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.SessionTTL != "" {
		if v := os.Getenv(env.SessionTTL); v != "" {
			c.SessionTTL = v
		}
	}
	if env.MaxSessions != "" {
		if v := os.Getenv(env.MaxSessions); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxSessions = n
			}
		}
	}
	if env.FetchTimeout != "" {
		if v := os.Getenv(env.FetchTimeout); v != "" {
			c.FetchTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if d, err := time.ParseDuration(c.SessionTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid session_ttl: %q", c.SessionTTL)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("max_sessions must be positive")
	}
	if d, err := time.ParseDuration(c.FetchTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid fetch_timeout: %q", c.FetchTimeout)
	}
	return nil
}
