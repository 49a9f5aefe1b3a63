package openapi

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls the generated API document.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	// Disabled stops the document from being served.
	Disabled bool `toml:"disabled"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	Title       string
	Description string
	Disabled    string
}

// Finalize fills the default title and description, then applies env
// overrides.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "Console API"
	}
	if c.Description == "" {
		c.Description = "Session-scoped Users and Documents tables: search, sort, paging and add/edit."
	}
	if env == nil {
		return nil
	}

	for name, dst := range map[string]*string{
		env.Title:       &c.Title,
		env.Description: &c.Description,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if env.Disabled != "" {
		if v := os.Getenv(env.Disabled); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", env.Disabled, err)
			}
			c.Disabled = b
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.Disabled {
		c.Disabled = true
	}
}
