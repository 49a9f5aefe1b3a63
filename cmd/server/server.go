package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/internal/infrastructure"
)

// Server ties the console's subsystems to one HTTP listener.
type Server struct {
	infra    *infrastructure.Infrastructure
	listener *listener
	drain    time.Duration
}

// NewServer wires infrastructure, the API and console modules and the root
// router. Nothing is started.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("infrastructure: %w", err)
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, fmt.Errorf("modules: %w", err)
	}

	router := buildRouter(cfg, infra)
	modules.Mount(router)

	return &Server{
		infra:    infra,
		listener: newListener(&cfg.Server, router, infra.Logger),
		drain:    cfg.ShutdownTimeoutDuration(),
	}, nil
}

// Start runs startup hooks and binds the listener.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.listener.Start(s.infra.Lifecycle); err != nil {
		return errors.Join(err, s.Shutdown())
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		if pending := s.infra.Lifecycle.Pending(); len(pending) > 0 {
			s.infra.Logger.Info("startup complete, waiting on checks", "pending", pending)
			return
		}
		s.infra.Logger.Info("ready")
	}()

	return nil
}

// Run starts the server and blocks until ctx ends or the listener fails,
// then shuts down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		s.infra.Logger.Info("stop requested")
		return s.Shutdown()
	case err := <-s.listener.Done():
		return errors.Join(err, s.Shutdown())
	}
}

// Shutdown cancels the lifecycle context and waits for shutdown hooks up to
// the configured timeout.
func (s *Server) Shutdown() error {
	return s.infra.Lifecycle.Shutdown(s.drain)
}
