package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/console/pkg/formatting"
	"github.com/JaimeStill/console/pkg/openapi"
)

const (
	EnvAPIBasePath      = "CONSOLE_API_BASE_PATH"
	EnvAPIMaxUploadSize = "CONSOLE_API_MAX_UPLOAD_SIZE"
)

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "CONSOLE_API_OPENAPI_TITLE",
	Description: "CONSOLE_API_OPENAPI_DESCRIPTION",
	Disabled:    "CONSOLE_API_OPENAPI_DISABLED",
}

// APIConfig holds JSON API routing and upload limits. The upload limit also
// bounds attachments posted through the console forms.
type APIConfig struct {
	BasePath      string         `toml:"base_path"`
	MaxUploadSize string         `toml:"max_upload_size"`
	OpenAPI       openapi.Config `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1000 * 1000
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size < 1 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
