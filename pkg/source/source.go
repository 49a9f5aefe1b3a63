// Package source fetches raw table records from a remote JSON API by kind
// and optionally writes edits back to it.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"
)

// System is the data source contract shared by all table kinds.
type System interface {
	// Fetch returns the raw records of kind. Concurrent fetches of the same
	// kind share one request.
	Fetch(ctx context.Context, kind string) ([]json.RawMessage, error)
	// Save writes record to the remote. created selects POST over PUT.
	Save(ctx context.Context, kind string, id int, record any, created bool) error
	// WriteThrough reports whether edits should be persisted remotely.
	WriteThrough() bool
}

type client struct {
	http         *http.Client
	baseURL      string
	paths        map[string]string
	writeThrough bool
	group        singleflight.Group
	logger       *slog.Logger
}

// New creates an HTTP source from the given configuration.
func New(cfg *Config, logger *slog.Logger) System {
	return &client{
		http:         &http.Client{Timeout: cfg.TimeoutDuration()},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		paths:        cfg.Paths,
		writeThrough: cfg.WriteThrough,
		logger:       logger.With("system", "source"),
	}
}

func (c *client) WriteThrough() bool {
	return c.writeThrough
}

func (c *client) Fetch(ctx context.Context, kind string) ([]json.RawMessage, error) {
	endpoint, err := c.endpoint(kind)
	if err != nil {
		return nil, err
	}

	// The shared request outlives any single caller; the client timeout bounds it.
	flight := context.WithoutCancel(ctx)
	ch := c.group.DoChan(kind, func() (any, error) {
		return c.get(flight, endpoint)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		records := res.Val.([]json.RawMessage)
		c.logger.Debug("records fetched", "kind", kind, "count", len(records), "shared", res.Shared)
		return records, nil
	}
}

func (c *client) Save(ctx context.Context, kind string, id int, record any, created bool) error {
	endpoint, err := c.endpoint(kind)
	if err != nil {
		return err
	}

	method := http.MethodPost
	if !created {
		method = http.MethodPut
		endpoint += "/" + strconv.Itoa(id)
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s %d: %w", kind, id, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: %d", ErrUnexpectedStatus, method, endpoint, resp.StatusCode)
	}

	c.logger.Info("record saved", "kind", kind, "id", id, "created", created)
	return nil
}

func (c *client) get(ctx context.Context, endpoint string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: %d", ErrUnexpectedStatus, endpoint, resp.StatusCode)
	}

	var records []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrDecode, endpoint, err)
	}
	return records, nil
}

func (c *client) endpoint(kind string) (string, error) {
	path, ok := c.paths[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return c.baseURL + path, nil
}

// Decode maps raw records through fn, stopping at the first failure.
func Decode[W, R any](raw []json.RawMessage, fn func(W) R) ([]R, error) {
	out := make([]R, 0, len(raw))
	for i, msg := range raw {
		var w W
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrDecode, i, err)
		}
		out = append(out, fn(w))
	}
	return out, nil
}
