package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/console/internal/users"
	"github.com/JaimeStill/console/pkg/metrics"
)

// Directory resolves a login email to a user record.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// PasswordAuthenticator checks an email against the user directory and the
// password against a single configured mock password.
type PasswordAuthenticator struct {
	dir      Directory
	password string
	logger   *slog.Logger
}

// NewPasswordAuthenticator creates a PasswordAuthenticator.
func NewPasswordAuthenticator(dir Directory, cfg *Config, logger *slog.Logger) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		dir:      dir,
		password: cfg.MockPassword,
		logger:   logger.With("system", "auth"),
	}
}

// Authenticate returns the identity for email when the password matches.
// The email is checked first, so an unknown user reports ErrUserNotFound
// regardless of the password.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	u, err := a.dir.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, users.ErrNotFound):
		metrics.ObserveLogin("user_not_found")
		return Identity{}, ErrUserNotFound
	case err != nil:
		a.logger.Error("user lookup failed", "error", err)
		metrics.ObserveLogin("error")
		return Identity{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) != 1 {
		metrics.ObserveLogin("invalid_password")
		return Identity{}, ErrInvalidPassword
	}

	metrics.ObserveLogin("success")
	return Identity{Email: u.Email, Name: u.Name}, nil
}
