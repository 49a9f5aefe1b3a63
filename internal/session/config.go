package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds session cookie, mock password and OIDC settings.
type Config struct {
	Secret       string     `toml:"secret"`
	MockPassword string     `toml:"mock_password"`
	CookieSecure bool       `toml:"cookie_secure"`
	Expiry       string     `toml:"expiry"`
	OIDC         OIDCConfig `toml:"oidc"`
}

// OIDCConfig enables "Log In With Google" (or any OIDC issuer) when Issuer is set.
type OIDCConfig struct {
	Name         string `toml:"name"`
	Issuer       string `toml:"issuer"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// Enabled reports whether an issuer is configured.
func (c *OIDCConfig) Enabled() bool {
	return c.Issuer != ""
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Secret           string
	MockPassword     string
	CookieSecure     string
	Expiry           string
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// ExpiryDuration returns Expiry as a time.Duration.
func (c *Config) ExpiryDuration() time.Duration {
	d, _ := time.ParseDuration(c.Expiry)
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

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.MockPassword != "" {
		c.MockPassword = overlay.MockPassword
	}
	if overlay.CookieSecure {
		c.CookieSecure = true
	}
	if overlay.Expiry != "" {
		c.Expiry = overlay.Expiry
	}
	if overlay.OIDC.Name != "" {
		c.OIDC.Name = overlay.OIDC.Name
	}
	if overlay.OIDC.Issuer != "" {
		c.OIDC.Issuer = overlay.OIDC.Issuer
	}
	if overlay.OIDC.ClientID != "" {
		c.OIDC.ClientID = overlay.OIDC.ClientID
	}
	if overlay.OIDC.ClientSecret != "" {
		c.OIDC.ClientSecret = overlay.OIDC.ClientSecret
	}
	if overlay.OIDC.RedirectURL != "" {
		c.OIDC.RedirectURL = overlay.OIDC.RedirectURL
	}
}

func (c *Config) loadDefaults() {
	if c.Secret == "" {
		c.Secret = randomSecret()
	}
	if c.MockPassword == "" {
		c.MockPassword = "password"
	}
	if c.Expiry == "" {
		c.Expiry = "24h"
	}
	if c.OIDC.Name == "" {
		c.OIDC.Name = "Google"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Secret, &c.Secret)
	set(env.MockPassword, &c.MockPassword)
	set(env.Expiry, &c.Expiry)
	set(env.OIDCIssuer, &c.OIDC.Issuer)
	set(env.OIDCClientID, &c.OIDC.ClientID)
	set(env.OIDCClientSecret, &c.OIDC.ClientSecret)
	set(env.OIDCRedirectURL, &c.OIDC.RedirectURL)

	if env.CookieSecure != "" {
		if v := os.Getenv(env.CookieSecure); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.CookieSecure = b
			}
		}
	}
}

func (c *Config) validate() error {
	if len(c.Secret) < 32 {
		return fmt.Errorf("secret must be at least 32 bytes")
	}
	if d, err := time.ParseDuration(c.Expiry); err != nil || d <= 0 {
		return fmt.Errorf("invalid expiry: %q", c.Expiry)
	}
	if c.OIDC.Enabled() {
		if c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "" {
			return fmt.Errorf("oidc: client_id and redirect_url required when issuer is set")
		}
	}
	return nil
}

// randomSecret signs sessions when no secret is configured; they do not
// survive a restart.
func randomSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
