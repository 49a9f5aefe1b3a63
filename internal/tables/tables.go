// Package tables keeps one Workspace per login session. Workspaces are
// created on first use, kept alive while the session is active and closed
// when it logs out or goes idle past the configured TTL.
package tables

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Velocidex/ttlcache/v2"

	"github.com/JaimeStill/console/internal/documents"
	"github.com/JaimeStill/console/internal/users"
	"github.com/JaimeStill/console/pkg/lifecycle"
	"github.com/JaimeStill/console/pkg/metrics"
	"github.com/JaimeStill/console/pkg/pagination"
	"github.com/JaimeStill/console/pkg/source"
	"github.com/JaimeStill/console/pkg/storage"
	"github.com/JaimeStill/console/pkg/table"
)

// Attachment is an opened document file.
type Attachment struct {
	Blob *storage.Blob
	Meta *documents.Attachment
}

// System hands out session workspaces.
type System interface {
	// Start ties workspace fetches to the server lifetime and closes every
	// workspace on shutdown.
	Start(lc *lifecycle.Coordinator) error
	// Open returns the workspace for sessionID, creating it and issuing its
	// initial fetches when none exists. Each call extends the idle TTL.
	Open(sessionID string) (*Workspace, error)
	// Drop closes and forgets the workspace for sessionID.
	Drop(sessionID string)
	// Len reports the number of live workspaces.
	Len() int
	// Close drops every workspace and stops expiry processing.
	Close()
	// PageSizes exposes the configured page size bounds.
	PageSizes() pagination.Config
}

type registry struct {
	cfg    *Config
	src    source.System
	docs   documents.System
	clock  func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	base  context.Context
	cache *ttlcache.Cache
}

// New creates the workspace registry.
func New(cfg *Config, src source.System, docs documents.System, clock func() time.Time, logger *slog.Logger) (System, error) {
	if clock == nil {
		clock = time.Now
	}

	r := &registry{
		cfg:    cfg,
		src:    src,
		docs:   docs,
		clock:  clock,
		logger: logger.With("system", "tables"),
		base:   context.Background(),
		cache:  ttlcache.NewCache(),
	}

	if err := r.cache.SetTTL(cfg.SessionTTLDuration()); err != nil {
		return nil, fmt.Errorf("set session ttl: %w", err)
	}
	r.cache.SetCacheSizeLimit(cfg.MaxSessions)
	r.cache.SetExpirationCallback(func(key string, value interface{}) error {
		if ws, ok := value.(*Workspace); ok {
			r.logger.Info("workspace released", "session", key)
			// Do not block the cache while closing.
			go ws.Close()
		}
		return nil
	})

	return r, nil
}

func (r *registry) Start(lc *lifecycle.Coordinator) error {
	r.mu.Lock()
	r.base = lc.Context()
	r.mu.Unlock()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		r.logger.Info("closing workspaces", "count", r.Len())
		r.Close()
	})
	return nil
}

func (r *registry) PageSizes() pagination.Config {
	return r.cfg.Pagination
}

func (r *registry) Open(sessionID string) (*Workspace, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, err := r.cache.Get(sessionID); err == nil {
		return v.(*Workspace), nil
	}

	ws, err := r.create(sessionID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(sessionID, ws); err != nil {
		ws.Close()
		return nil, fmt.Errorf("register workspace: %w", err)
	}

	r.logger.Info("workspace opened", "session", sessionID)
	return ws, nil
}

func (r *registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, err := r.cache.Get(sessionID)
	if err != nil {
		return
	}
	_ = r.cache.Remove(sessionID)
	v.(*Workspace).Close()
	r.logger.Info("workspace dropped", "session", sessionID)
}

func (r *registry) Len() int {
	return r.cache.Count()
}

func (r *registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range r.cache.GetKeys() {
		if v, err := r.cache.Get(key); err == nil {
			v.(*Workspace).Close()
		}
	}
	_ = r.cache.Purge()
	r.cache.Close()
}

func (r *registry) create(sessionID string) (*Workspace, error) {
	engCfg := table.Config{
		PageSize:     r.cfg.Pagination.DefaultPageSize,
		FetchTimeout: r.cfg.FetchTimeoutDuration(),
	}

	var userOpts []table.Option[users.User]
	var docOpts []table.Option[documents.Document]
	if r.src.WriteThrough() {
		userOpts = append(userOpts, table.WithPersister(users.Persister(r.src)))
		docOpts = append(docOpts, table.WithPersister(documents.Persister(r.src)))
	}

	logger := r.logger.With("session", sessionID)

	u, err := table.New(users.Kind, engCfg, logger, userOpts...)
	if err != nil {
		return nil, err
	}
	d, err := table.New(documents.Kind, engCfg, logger, docOpts...)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{ID: sessionID, Users: u, Documents: d, docs: r.docs}
	metrics.SessionOpened()

	if err := u.Start(r.base, metrics.InstrumentFetch(users.Kind.Name, users.Fetcher(r.src))); err != nil {
		ws.Close()
		return nil, err
	}
	if err := d.Start(r.base, metrics.InstrumentFetch(documents.Kind.Name, documents.Fetcher(r.src, r.clock))); err != nil {
		ws.Close()
		return nil, err
	}

	return ws, nil
}
