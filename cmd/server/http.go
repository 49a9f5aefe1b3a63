package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/pkg/lifecycle"
)

// listener owns the console's http.Server. The socket is bound in Start so
// an unusable address fails startup instead of surfacing in a log line.
type listener struct {
	srv      *http.Server
	logger   *slog.Logger
	drain    time.Duration
	boundTo  net.Addr
	serveErr chan error
}

func newListener(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *listener {
	logger = logger.With("system", "http")
	return &listener{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeoutDuration(),
			ReadHeaderTimeout: cfg.ReadTimeoutDuration(),
			WriteTimeout:      cfg.WriteTimeoutDuration(),
			IdleTimeout:       cfg.IdleTimeoutDuration(),
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger:   logger,
		drain:    cfg.ShutdownTimeoutDuration(),
		serveErr: make(chan error, 1),
	}
}

// Start binds the address, serves on a background goroutine and registers
// a graceful drain with the coordinator.
func (l *listener) Start(lc *lifecycle.Coordinator) error {
	ln, err := net.Listen("tcp", l.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", l.srv.Addr, err)
	}
	l.boundTo = ln.Addr()
	l.logger.Info("listening", "addr", l.boundTo.String())

	go func() {
		err := l.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			l.logger.Error("serve failed", "error", err)
		}
		l.serveErr <- err
	}()

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), l.drain)
		defer cancel()

		l.logger.Info("draining connections", "timeout", l.drain)
		if err := l.srv.Shutdown(ctx); err != nil {
			l.logger.Error("drain incomplete", "error", err)
			return
		}
		l.logger.Info("http stopped")
	})

	return nil
}

// Addr reports the bound address once Start has succeeded.
func (l *listener) Addr() net.Addr {
	return l.boundTo
}

// Done yields the serve loop's terminal error, nil after a clean shutdown.
func (l *listener) Done() <-chan error {
	return l.serveErr
}
