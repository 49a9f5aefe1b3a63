package source

import (
	"fmt"
	"maps"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds the placeholder API endpoint and per-kind resource paths.
type Config struct {
	BaseURL      string            `toml:"base_url"`
	Timeout      string            `toml:"timeout"`
	WriteThrough bool              `toml:"write_through"`
	Paths        map[string]string `toml:"paths"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL      string
	Timeout      string
	WriteThrough string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Paths merge per kind.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.WriteThrough {
		c.WriteThrough = true
	}
	if len(overlay.Paths) > 0 {
		if c.Paths == nil {
			c.Paths = make(map[string]string, len(overlay.Paths))
		}
		maps.Copy(c.Paths, overlay.Paths)
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://jsonplaceholder.typicode.com"
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.Paths == nil {
		c.Paths = make(map[string]string)
	}
	if _, ok := c.Paths["users"]; !ok {
		c.Paths["users"] = "/users"
	}
	if _, ok := c.Paths["documents"]; !ok {
		c.Paths["documents"] = "/posts"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.WriteThrough != "" {
		if v := os.Getenv(env.WriteThrough); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.WriteThrough = b
			}
		}
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	return nil
}
