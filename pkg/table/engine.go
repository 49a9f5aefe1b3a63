package table

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/JaimeStill/console/pkg/pagination"
)

// Fetcher loads the initial collection for a table.
type Fetcher[R any] func(ctx context.Context) ([]R, error)

// Persister writes a record through to a remote store before it is applied
// locally. created reports whether the record is new.
type Persister[R any] func(ctx context.Context, record R, created bool) error

// Config holds engine settings.
type Config struct {
	PageSize     int
	FetchTimeout time.Duration
}

// Option customizes an Engine at construction.
type Option[R any] func(*Engine[R])

// WithPersister enables write-through on Upsert.
func WithPersister[R any](p Persister[R]) Option[R] {
	return func(e *Engine[R]) {
		e.persist = p
	}
}

// Engine is a stateful table over records of type R. It is safe for
// concurrent use; every operation runs to completion under the engine lock.
type Engine[R any] struct {
	kind         *Kind[R]
	logger       *slog.Logger
	persist      Persister[R]
	fetchTimeout time.Duration

	mu        sync.RWMutex
	records   []R
	query     string
	sort      *SortSpec
	pageIndex int
	pageSize  int
	status    Status
	mutated   bool
	closed    bool
	cancel    context.CancelFunc
	loaded    chan struct{}
}

// New creates an empty, idle Engine for the given kind.
func New[R any](kind *Kind[R], cfg Config, logger *slog.Logger, opts ...Option[R]) (*Engine[R], error) {
	if err := kind.validate(); err != nil {
		return nil, err
	}
	if cfg.PageSize < 1 {
		return nil, ErrInvalidPageSize
	}

	e := &Engine[R]{
		kind:         kind,
		logger:       logger.With("table", kind.Name),
		fetchTimeout: cfg.FetchTimeout,
		pageSize:     cfg.PageSize,
		status:       StatusIdle,
		loaded:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Kind returns the engine's entity configuration.
func (e *Engine[R]) Kind() *Kind[R] {
	return e.kind
}

// Start issues the initial fetch on a new goroutine and returns immediately.
// The fetch is bounded by the configured timeout and cancelled by Close.
func (e *Engine[R]) Start(ctx context.Context, fetch Fetcher[R]) error {
	ctx, cancel, err := e.begin(ctx)
	if err != nil {
		return err
	}

	go func() {
		defer cancel()
		records, err := fetch(ctx)
		e.complete(records, err)
	}()

	return nil
}

// Load performs the initial fetch synchronously. Fetch failures are logged
// and returned wrapped in ErrFetchFailed; the collection is left empty.
func (e *Engine[R]) Load(ctx context.Context, fetch Fetcher[R]) error {
	ctx, cancel, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	records, err := fetch(ctx)
	return e.complete(records, err)
}

// Loaded returns a channel closed once the initial fetch has resolved or the
// engine has been closed.
func (e *Engine[R]) Loaded() <-chan struct{} {
	return e.loaded
}

// Close tears the engine down. An in-flight fetch is cancelled and its
// completion becomes a no-op. Close is idempotent.
func (e *Engine[R]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true

	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.status != StatusPopulated {
		close(e.loaded)
	}
}

// Status returns the load state.
func (e *Engine[R]) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Len returns the size of the whole collection.
func (e *Engine[R]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.records)
}

// Find returns the record with the given id.
func (e *Engine[R]) Find(id int) (R, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if i := e.indexOf(id); i >= 0 {
		return e.records[i], true
	}
	var zero R
	return zero, false
}

// SetQuery replaces the search query and returns to the first page.
func (e *Engine[R]) SetQuery(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.query = text
	e.pageIndex = 0
}

// SetSort advances the sort on field through ascending, descending and
// unsorted. Selecting a different field starts it ascending. The cursor
// returns to the first page.
func (e *Engine[R]) SetSort(field string) error {
	if _, ok := e.kind.Column(field); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.sort == nil || e.sort.Field != field:
		e.sort = &SortSpec{Field: field}
	case !e.sort.Descending:
		e.sort = &SortSpec{Field: field, Descending: true}
	default:
		e.sort = nil
	}

	e.pageIndex = 0
	return nil
}

// SetPage moves the cursor by delta pages, clamped to the available range.
// It reports whether the cursor moved.
func (e *Engine[R]) SetPage(delta int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := pagination.PageCount(len(e.filter()), e.pageSize)
	target := pagination.Clamp(e.pageIndex+delta, count)
	moved := target != e.pageIndex
	e.pageIndex = target
	return moved
}

// SetPageSize changes rows per page, keeping the first visible row on screen.
func (e *Engine[R]) SetPageSize(size int) error {
	if size < 1 {
		return ErrInvalidPageSize
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pageIndex = pagination.Reindex(e.pageIndex, e.pageSize, size)
	e.pageSize = size
	e.clampPage()
	return nil
}

// CanPreviousPage reports whether a previous page exists.
func (e *Engine[R]) CanPreviousPage() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pageIndex > 0
}

// CanNextPage reports whether a next page exists.
func (e *Engine[R]) CanNextPage() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	count := pagination.PageCount(len(e.filter()), e.pageSize)
	return e.pageIndex < count-1
}

// VisiblePage derives the current page: records matching the query, in sort
// order, sliced by the cursor. It does not modify the engine; the returned
// slice is a copy.
func (e *Engine[R]) VisiblePage() Page[R] {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rows := e.filter()

	if e.sort != nil {
		col, _ := e.kind.Column(e.sort.Field)
		desc := e.sort.Descending
		slices.SortStableFunc(rows, func(a, b R) int {
			c := compareValues(col.Value(a), col.Value(b))
			if desc {
				return -c
			}
			return c
		})
	}

	total := len(rows)
	count := pagination.PageCount(total, e.pageSize)
	start, end := pagination.Window(total, e.pageIndex, e.pageSize)

	page := Page[R]{
		Records:     slices.Clone(rows[start:end]),
		Query:       e.query,
		PageIndex:   e.pageIndex,
		PageSize:    e.pageSize,
		PageCount:   count,
		Total:       total,
		CanPrevious: e.pageIndex > 0,
		CanNext:     e.pageIndex < count-1,
		Status:      e.status,
	}
	if page.Records == nil {
		page.Records = []R{}
	}
	if e.sort != nil {
		s := *e.sort
		page.Sort = &s
	}

	return page
}

// Upsert applies a form submission. When editingID names an existing record
// that record is replaced in place and keeps its id; otherwise the record is
// appended under a newly assigned id. With a Persister configured the record
// is written through first and a failure leaves the collection unchanged.
func (e *Engine[R]) Upsert(ctx context.Context, record R, editingID *int) (R, error) {
	var zero R

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return zero, ErrClosed
	}

	idx := -1
	if editingID != nil {
		idx = e.indexOf(*editingID)
	}
	created := idx < 0

	id := 0
	if created {
		id = e.kind.nextID(e.records)
	} else {
		id = *editingID
	}
	stored := e.kind.WithID(record, id)

	if e.persist != nil {
		if err := e.persist(ctx, stored, created); err != nil {
			e.logger.Warn("upsert discarded", "id", id, "created", created, "error", err)
			return zero, fmt.Errorf("%w: %w", ErrPersistFailed, err)
		}
	}

	if created {
		e.records = append(e.records, stored)
	} else {
		e.records[idx] = stored
	}
	e.mutated = true
	e.clampPage()

	e.logger.Info("record upserted", "id", id, "created", created)
	return stored, nil
}

func (e *Engine[R]) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, nil, ErrClosed
	}
	if e.status != StatusIdle {
		return nil, nil, ErrAlreadyStarted
	}

	var cancel context.CancelFunc
	if e.fetchTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	e.cancel = cancel
	e.status = StatusLoading
	return ctx, cancel, nil
}

func (e *Engine[R]) complete(records []R, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	e.status = StatusPopulated
	e.cancel = nil
	defer close(e.loaded)

	if err != nil {
		e.logger.Error("fetch failed", "error", err)
		return fmt.Errorf("%w: %s: %w", ErrFetchFailed, e.kind.Name, err)
	}

	if e.mutated {
		e.logger.Warn("fetch discarded, collection changed while loading", "fetched", len(records))
		return ErrFetchDiscarded
	}

	e.records = slices.Clone(records)
	e.logger.Info("collection populated", "count", len(e.records))
	return nil
}

func (e *Engine[R]) filter() []R {
	col, _ := e.kind.Column(e.kind.SearchField)
	rows := make([]R, 0, len(e.records))
	for _, r := range e.records {
		if contains(col.Value(r), e.query) {
			rows = append(rows, r)
		}
	}
	return rows
}

func (e *Engine[R]) indexOf(id int) int {
	return slices.IndexFunc(e.records, func(r R) bool {
		return e.kind.ID(r) == id
	})
}

func (e *Engine[R]) clampPage() {
	count := pagination.PageCount(len(e.filter()), e.pageSize)
	e.pageIndex = pagination.Clamp(e.pageIndex, count)
}
