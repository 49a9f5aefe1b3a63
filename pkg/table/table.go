// Package table provides a generic in-memory tabular data engine.
// An Engine owns a record collection together with a search query, a
// three-state column sort and a page cursor, derives the visible page from
// them, and reconciles create and update submissions against the collection.
package table

import (
	"fmt"
	"slices"
)

// Column describes a displayable, sortable field of a record.
// Value returns the sort key: strings compare byte-wise, numbers and
// times compare by magnitude. Format renders the cell; when nil the value
// is printed with fmt.
type Column[R any] struct {
	Field  string
	Header string
	Value  func(R) any
	Format func(R) string
}

// Text renders the column cell for r.
func (c Column[R]) Text(r R) string {
	if c.Format != nil {
		return c.Format(r)
	}
	v := c.Value(r)
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IDPolicy computes the identifier for a newly created record.
type IDPolicy[R any] func(records []R, id func(R) int) int

// MaxPlusOne assigns one greater than the largest existing id, or 1 when the
// collection is empty. Concurrent writers against a shared backend can collide
// under this policy.
func MaxPlusOne[R any](records []R, id func(R) int) int {
	highest := 0
	for _, r := range records {
		highest = max(highest, id(r))
	}
	return highest + 1
}

// Kind is the per-entity configuration an Engine is parameterized with.
type Kind[R any] struct {
	// Name identifies the entity kind in logs, routes and metrics.
	Name string
	// SearchField names the column matched by the search query.
	SearchField string
	Columns     []Column[R]
	// ID reads a record's identifier; WithID returns a copy carrying id.
	ID     func(R) int
	WithID func(R, int) R
	// NextID defaults to MaxPlusOne.
	NextID IDPolicy[R]
}

// Column returns the column registered for field.
func (k *Kind[R]) Column(field string) (Column[R], bool) {
	i := slices.IndexFunc(k.Columns, func(c Column[R]) bool {
		return c.Field == field
	})
	if i < 0 {
		return Column[R]{}, false
	}
	return k.Columns[i], true
}

func (k *Kind[R]) validate() error {
	if k.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidKind)
	}
	if k.ID == nil || k.WithID == nil {
		return fmt.Errorf("%w: %s: id accessors required", ErrInvalidKind, k.Name)
	}
	for _, c := range k.Columns {
		if c.Field == "" || c.Value == nil {
			return fmt.Errorf("%w: %s: column field and value required", ErrInvalidKind, k.Name)
		}
	}
	if _, ok := k.Column(k.SearchField); !ok {
		return fmt.Errorf("%w: %s: search field %q is not a column", ErrInvalidKind, k.Name, k.SearchField)
	}
	return nil
}

func (k *Kind[R]) nextID(records []R) int {
	if k.NextID == nil {
		return MaxPlusOne(records, k.ID)
	}
	return k.NextID(records, k.ID)
}

// SortSpec is the active sort order of a table.
type SortSpec struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// Status is the load state of an Engine.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPopulated
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPopulated:
		return "populated"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Page is the visible slice of a table together with its cursor metadata.
// Total counts the records matching the query, not the whole collection.
type Page[R any] struct {
	Records     []R       `json:"records"`
	Query       string    `json:"query"`
	Sort        *SortSpec `json:"sort,omitempty"`
	PageIndex   int       `json:"page_index"`
	PageSize    int       `json:"page_size"`
	PageCount   int       `json:"page_count"`
	Total       int       `json:"total"`
	CanPrevious bool      `json:"can_previous"`
	CanNext     bool      `json:"can_next"`
	Status      Status    `json:"status"`
}
