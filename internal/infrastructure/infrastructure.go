// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies shared by the console and API modules: logging,
// the remote record source, attachment storage, per-session workspaces and
// session/auth.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/internal/documents"
	"github.com/JaimeStill/console/internal/session"
	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/internal/users"
	"github.com/JaimeStill/console/pkg/lifecycle"
	"github.com/JaimeStill/console/pkg/source"
	"github.com/JaimeStill/console/pkg/storage"
)

// Infrastructure holds the core systems required by all modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Source    source.System
	Storage   storage.System
	Tables    tables.System
	Sessions  *session.Store
	Auth      *session.PasswordAuthenticator
	// OIDC is nil unless an issuer is configured.
	OIDC *session.OIDC
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithLogger(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// NewWithLogger is New with an explicit root logger.
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	lc := lifecycle.New()

	src := source.New(&cfg.Source, logger)

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	docs := documents.New(store, time.Now, logger)

	reg, err := tables.New(&cfg.Tables, src, docs, time.Now, logger)
	if err != nil {
		return nil, fmt.Errorf("tables init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Source:    src,
		Storage:   store,
		Tables:    reg,
		Sessions:  session.NewStore(&cfg.Auth, logger),
		Auth:      session.NewPasswordAuthenticator(users.NewDirectory(src), &cfg.Auth, logger),
		OIDC:      session.NewOIDC(&cfg.Auth, logger),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Tables.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("tables start failed: %w", err)
	}
	if i.OIDC != nil {
		if err := i.OIDC.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("oidc start failed: %w", err)
		}
	}
	return nil
}
