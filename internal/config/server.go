package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost            = "CONSOLE_SERVER_HOST"
	EnvServerPort            = "CONSOLE_SERVER_PORT"
	EnvServerReadTimeout     = "CONSOLE_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "CONSOLE_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout     = "CONSOLE_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout = "CONSOLE_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds the listener and timeouts of the console's HTTP server.
// Timeouts are Go duration strings.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

type timeoutField struct {
	key      string
	env      string
	fallback string
	value    *string
}

// timeouts lists the duration settings so defaults, env overrides, merging
// and validation walk the same table.
func (c *ServerConfig) timeouts() []timeoutField {
	return []timeoutField{
		{"read_timeout", EnvServerReadTimeout, "30s", &c.ReadTimeout},
		{"write_timeout", EnvServerWriteTimeout, "2m", &c.WriteTimeout},
		{"idle_timeout", EnvServerIdleTimeout, "2m", &c.IdleTimeout},
		{"shutdown_timeout", EnvServerShutdownTimeout, "15s", &c.ShutdownTimeout},
	}
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration     { return duration(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration    { return duration(c.WriteTimeout) }
func (c *ServerConfig) IdleTimeoutDuration() time.Duration     { return duration(c.IdleTimeout) }
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration { return duration(c.ShutdownTimeout) }

// Finalize fills defaults, applies CONSOLE_SERVER_* overrides and validates.
func (c *ServerConfig) Finalize() error {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}

	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvServerPort, err)
		}
		c.Port = port
	}

	for _, f := range c.timeouts() {
		if *f.value == "" {
			*f.value = f.fallback
		}
		if v := os.Getenv(f.env); v != "" {
			*f.value = v
		}
	}

	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}

	theirs := overlay.timeouts()
	for i, f := range c.timeouts() {
		if v := *theirs[i].value; v != "" {
			*f.value = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, f := range c.timeouts() {
		d, err := time.ParseDuration(*f.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.key, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s: must not be negative", f.key)
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
