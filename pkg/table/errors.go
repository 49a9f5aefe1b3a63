package table

import "errors"

var (
	// ErrInvalidKind indicates a Kind is missing required configuration.
	ErrInvalidKind = errors.New("invalid table kind")
	// ErrInvalidPageSize indicates a non-positive page size.
	ErrInvalidPageSize = errors.New("page size must be positive")
	// ErrUnknownField indicates a sort was requested on a field with no column.
	ErrUnknownField = errors.New("unknown field")
	// ErrAlreadyStarted indicates the initial fetch has already been issued.
	ErrAlreadyStarted = errors.New("table already started")
	// ErrClosed indicates the engine has been torn down.
	ErrClosed = errors.New("table closed")
	// ErrFetchFailed wraps errors from the initial fetch, including timeouts.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrFetchDiscarded indicates a fetch result was dropped because the
	// collection was mutated while the fetch was in flight.
	ErrFetchDiscarded = errors.New("fetch discarded")
	// ErrPersistFailed wraps write-through failures; the mutation was not applied.
	ErrPersistFailed = errors.New("persist failed")
)
