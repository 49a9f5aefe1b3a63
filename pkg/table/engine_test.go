package table_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/console/pkg/table"
)

type person struct {
	ID   int
	Name string
	Age  int
}

func personKind() *table.Kind[person] {
	return &table.Kind[person]{
		Name:        "people",
		SearchField: "name",
		Columns: []table.Column[person]{
			{Field: "id", Header: "ID", Value: func(p person) any { return p.ID }},
			{Field: "name", Header: "Name", Value: func(p person) any { return p.Name }},
			{Field: "age", Header: "Age", Value: func(p person) any { return p.Age }},
		},
		ID: func(p person) int { return p.ID },
		WithID: func(p person, id int) person {
			p.ID = id
			return p
		},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, pageSize int, records ...person) *table.Engine[person] {
	t.Helper()
	e, err := table.New(personKind(), table.Config{PageSize: pageSize}, discard())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if len(records) > 0 {
		if err := e.Load(context.Background(), fixed(records)); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	t.Cleanup(e.Close)
	return e
}

func fixed(records []person) table.Fetcher[person] {
	return func(ctx context.Context) ([]person, error) {
		return records, nil
	}
}

func names(page table.Page[person]) []string {
	out := make([]string, len(page.Records))
	for i, p := range page.Records {
		out[i] = p.Name
	}
	return out
}

func generate(n int) []person {
	out := make([]person, n)
	for i := range out {
		out[i] = person{ID: i + 1, Name: fmt.Sprintf("person %02d", i+1), Age: 20 + i%7}
	}
	return out
}

func TestNewRejectsInvalidKind(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(k *table.Kind[person])
	}{
		{"missing name", func(k *table.Kind[person]) { k.Name = "" }},
		{"missing id accessor", func(k *table.Kind[person]) { k.ID = nil }},
		{"search field not a column", func(k *table.Kind[person]) { k.SearchField = "email" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := personKind()
			tt.mutate(k)
			_, err := table.New(k, table.Config{PageSize: 10}, discard())
			if !errors.Is(err, table.ErrInvalidKind) {
				t.Errorf("error = %v, want ErrInvalidKind", err)
			}
		})
	}
}

func TestNewRejectsInvalidPageSize(t *testing.T) {
	_, err := table.New(personKind(), table.Config{PageSize: 0}, discard())
	if !errors.Is(err, table.ErrInvalidPageSize) {
		t.Errorf("error = %v, want ErrInvalidPageSize", err)
	}
}

func TestQueryMatchesCaseInsensitiveSubstring(t *testing.T) {
	e := newEngine(t, 10,
		person{ID: 1, Name: "Ann"},
		person{ID: 2, Name: "Bob"},
	)

	e.SetQuery("an")
	page := e.VisiblePage()

	want := []person{{ID: 1, Name: "Ann"}}
	if diff := cmp.Diff(want, page.Records); diff != "" {
		t.Errorf("visible page mismatch (-want +got):\n%s", diff)
	}
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1", page.Total)
	}
}

func TestQueryOnlyReturnsMatchingRecords(t *testing.T) {
	e := newEngine(t, 100, generate(40)...)

	for _, q := range []string{"", "PERSON", "0", "1", "person 3", "zzz"} {
		e.SetQuery(q)
		for _, p := range e.VisiblePage().Records {
			if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
				t.Errorf("query %q returned non-matching record %q", q, p.Name)
			}
		}
	}
}

func TestEmptyQueryMatchesAll(t *testing.T) {
	e := newEngine(t, 100, generate(12)...)
	e.SetQuery("")
	if got := e.VisiblePage().Total; got != 12 {
		t.Errorf("Total = %d, want 12", got)
	}
}

func TestSetQueryResetsPage(t *testing.T) {
	e := newEngine(t, 10, generate(25)...)
	e.SetPage(1)
	e.SetPage(1)

	e.SetQuery("person")
	if got := e.VisiblePage().PageIndex; got != 0 {
		t.Errorf("PageIndex = %d, want 0", got)
	}
}

func TestSortToggleCycle(t *testing.T) {
	e := newEngine(t, 10,
		person{ID: 1, Name: "Cara"},
		person{ID: 2, Name: "Ann"},
		person{ID: 3, Name: "Bob"},
	)

	insertion := names(e.VisiblePage())

	steps := []struct {
		wantSort  *table.SortSpec
		wantNames []string
	}{
		{&table.SortSpec{Field: "name"}, []string{"Ann", "Bob", "Cara"}},
		{&table.SortSpec{Field: "name", Descending: true}, []string{"Cara", "Bob", "Ann"}},
		{nil, insertion},
	}

	for i, step := range steps {
		if err := e.SetSort("name"); err != nil {
			t.Fatalf("step %d: set sort: %v", i, err)
		}
		page := e.VisiblePage()
		if diff := cmp.Diff(step.wantSort, page.Sort); diff != "" {
			t.Errorf("step %d: sort mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(step.wantNames, names(page)); diff != "" {
			t.Errorf("step %d: order mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestSortDifferentFieldStartsAscending(t *testing.T) {
	e := newEngine(t, 10, generate(5)...)
	e.SetSort("name")
	e.SetSort("name")
	e.SetSort("age")

	want := &table.SortSpec{Field: "age"}
	if diff := cmp.Diff(want, e.VisiblePage().Sort); diff != "" {
		t.Errorf("sort mismatch (-want +got):\n%s", diff)
	}
}

func TestSortIsStable(t *testing.T) {
	e := newEngine(t, 10,
		person{ID: 1, Name: "a", Age: 30},
		person{ID: 2, Name: "b", Age: 20},
		person{ID: 3, Name: "c", Age: 30},
		person{ID: 4, Name: "d", Age: 20},
	)

	e.SetSort("age")
	if diff := cmp.Diff([]string{"b", "d", "a", "c"}, names(e.VisiblePage())); diff != "" {
		t.Errorf("ascending order mismatch (-want +got):\n%s", diff)
	}

	e.SetSort("age")
	if diff := cmp.Diff([]string{"a", "c", "b", "d"}, names(e.VisiblePage())); diff != "" {
		t.Errorf("descending order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortNumericColumn(t *testing.T) {
	e := newEngine(t, 10,
		person{ID: 10, Name: "ten"},
		person{ID: 9, Name: "nine"},
		person{ID: 100, Name: "hundred"},
	)

	e.SetSort("id")
	if diff := cmp.Diff([]string{"nine", "ten", "hundred"}, names(e.VisiblePage())); diff != "" {
		t.Errorf("numeric order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortUnknownField(t *testing.T) {
	e := newEngine(t, 10)
	if err := e.SetSort("email"); !errors.Is(err, table.ErrUnknownField) {
		t.Errorf("error = %v, want ErrUnknownField", err)
	}
}

func TestPaginationBounds(t *testing.T) {
	e := newEngine(t, 10, generate(25)...)

	page := e.VisiblePage()
	if page.PageCount != 3 {
		t.Fatalf("PageCount = %d, want 3", page.PageCount)
	}
	if e.CanPreviousPage() {
		t.Error("CanPreviousPage should be false at page 0")
	}
	if !e.CanNextPage() {
		t.Error("CanNextPage should be true at page 0")
	}

	e.SetPage(1)
	e.SetPage(1)
	page = e.VisiblePage()
	if page.PageIndex != 2 {
		t.Fatalf("PageIndex = %d, want 2", page.PageIndex)
	}
	if e.CanNextPage() || page.CanNext {
		t.Error("CanNextPage should be false at page 2")
	}
	if len(page.Records) != 5 {
		t.Errorf("last page has %d records, want 5", len(page.Records))
	}

	if moved := e.SetPage(1); moved {
		t.Error("SetPage past the last page should not move")
	}
	if got := e.VisiblePage().PageIndex; got != 2 {
		t.Errorf("PageIndex = %d, want 2 after clamped move", got)
	}

	e.SetPage(-5)
	if got := e.VisiblePage().PageIndex; got != 0 {
		t.Errorf("PageIndex = %d, want 0 after clamped move", got)
	}
	if moved := e.SetPage(-1); moved {
		t.Error("SetPage before the first page should not move")
	}
}

func TestPaginationEmpty(t *testing.T) {
	e := newEngine(t, 10)
	page := e.VisiblePage()

	if page.PageCount != 0 || page.CanNext || page.CanPrevious {
		t.Errorf("empty page = %+v, want no pages and no navigation", page)
	}
	if page.Records == nil {
		t.Error("Records should be an empty slice, not nil")
	}
}

func TestSetPageSizeKeepsTopRow(t *testing.T) {
	e := newEngine(t, 10, generate(50)...)
	e.SetPage(3)

	if err := e.SetPageSize(20); err != nil {
		t.Fatalf("set page size: %v", err)
	}
	page := e.VisiblePage()
	if page.PageIndex != 1 {
		t.Errorf("PageIndex = %d, want 1", page.PageIndex)
	}
	if page.Records[0].ID != 21 {
		t.Errorf("first row id = %d, want 21", page.Records[0].ID)
	}

	if err := e.SetPageSize(0); !errors.Is(err, table.ErrInvalidPageSize) {
		t.Errorf("error = %v, want ErrInvalidPageSize", err)
	}
}

func TestVisiblePageIsIdempotent(t *testing.T) {
	e := newEngine(t, 4, generate(10)...)
	e.SetQuery("person")
	e.SetSort("age")
	e.SetPage(1)

	first := e.VisiblePage()
	second := e.VisiblePage()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated VisiblePage differs (-first +second):\n%s", diff)
	}

	first.Records[0].Name = "mutated"
	if e.VisiblePage().Records[0].Name == "mutated" {
		t.Error("VisiblePage returned a slice aliasing engine state")
	}
}

func TestUpsertCreateAssignsNextID(t *testing.T) {
	e := newEngine(t, 10,
		person{ID: 1, Name: "Ann"},
		person{ID: 2, Name: "Bob"},
	)

	created, err := e.Upsert(context.Background(), person{Name: "Cara"}, nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if created.ID != 3 {
		t.Errorf("created id = %d, want 3", created.ID)
	}
	if e.Len() != 3 {
		t.Errorf("Len = %d, want 3", e.Len())
	}

	want := []person{
		{ID: 1, Name: "Ann"},
		{ID: 2, Name: "Bob"},
		{ID: 3, Name: "Cara"},
	}
	if diff := cmp.Diff(want, e.VisiblePage().Records); diff != "" {
		t.Errorf("collection mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertCreateOnEmptyAssignsOne(t *testing.T) {
	e := newEngine(t, 10)
	created, err := e.Upsert(context.Background(), person{Name: "first"}, nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if created.ID != 1 {
		t.Errorf("created id = %d, want 1", created.ID)
	}
}

func TestUpsertCreateUsesMaxNotCount(t *testing.T) {
	e := newEngine(t, 10,
		person{ID: 7, Name: "seven"},
		person{ID: 3, Name: "three"},
	)
	created, _ := e.Upsert(context.Background(), person{Name: "next"}, nil)
	if created.ID != 8 {
		t.Errorf("created id = %d, want 8", created.ID)
	}
}

func TestUpsertEditReplacesInPlace(t *testing.T) {
	e := newEngine(t, 10,
		person{ID: 1, Name: "Ann"},
		person{ID: 2, Name: "Bob"},
	)

	id := 2
	updated, err := e.Upsert(context.Background(), person{ID: 99, Name: "Robert", Age: 40}, &id)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if updated.ID != 2 {
		t.Errorf("updated id = %d, want 2 (preserved)", updated.ID)
	}
	if e.Len() != 2 {
		t.Errorf("Len = %d, want 2", e.Len())
	}

	got, ok := e.Find(2)
	if !ok {
		t.Fatal("record 2 not found")
	}
	if diff := cmp.Diff(person{ID: 2, Name: "Robert", Age: 40}, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Ann", "Robert"}, names(e.VisiblePage())); diff != "" {
		t.Errorf("position changed (-want +got):\n%s", diff)
	}
}

func TestUpsertUnknownEditingIDCreates(t *testing.T) {
	e := newEngine(t, 10, person{ID: 1, Name: "Ann"})

	id := 42
	created, err := e.Upsert(context.Background(), person{Name: "ghost"}, &id)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if created.ID != 2 {
		t.Errorf("created id = %d, want 2", created.ID)
	}
	if e.Len() != 2 {
		t.Errorf("Len = %d, want 2", e.Len())
	}
}

func TestUpsertSizeInvariants(t *testing.T) {
	e := newEngine(t, 10, generate(5)...)

	for i := range 5 {
		before := e.Len()
		id := i + 1
		if _, err := e.Upsert(context.Background(), person{Name: "edit"}, &id); err != nil {
			t.Fatalf("edit %d: %v", id, err)
		}
		if e.Len() != before {
			t.Errorf("edit changed size from %d to %d", before, e.Len())
		}

		before = e.Len()
		created, err := e.Upsert(context.Background(), person{Name: "new"}, nil)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if e.Len() != before+1 {
			t.Errorf("create changed size from %d to %d", before, e.Len())
		}
		if created.ID != before+1 {
			t.Errorf("created id = %d, want %d", created.ID, before+1)
		}
	}
}

func TestUpsertClampsPageWhenEditLeavesFilter(t *testing.T) {
	e := newEngine(t, 2,
		person{ID: 1, Name: "match a"},
		person{ID: 2, Name: "match b"},
		person{ID: 3, Name: "match c"},
	)
	e.SetQuery("match")
	e.SetPage(1)

	id := 3
	if _, err := e.Upsert(context.Background(), person{Name: "other"}, &id); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	page := e.VisiblePage()
	if page.PageIndex != 0 {
		t.Errorf("PageIndex = %d, want 0 after filtered set shrank", page.PageIndex)
	}
	if page.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", page.PageCount)
	}
}

func TestUpsertPersistFailureRetainsState(t *testing.T) {
	remote := errors.New("remote unavailable")
	persist := func(ctx context.Context, p person, created bool) error {
		return remote
	}

	e, err := table.New(personKind(), table.Config{PageSize: 10}, discard(), table.WithPersister(persist))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()
	e.Load(context.Background(), fixed([]person{{ID: 1, Name: "Ann"}}))

	_, err = e.Upsert(context.Background(), person{Name: "Bob"}, nil)
	if !errors.Is(err, table.ErrPersistFailed) || !errors.Is(err, remote) {
		t.Errorf("error = %v, want ErrPersistFailed wrapping remote error", err)
	}

	id := 1
	_, err = e.Upsert(context.Background(), person{Name: "Changed"}, &id)
	if !errors.Is(err, table.ErrPersistFailed) {
		t.Errorf("error = %v, want ErrPersistFailed", err)
	}

	want := []person{{ID: 1, Name: "Ann"}}
	if diff := cmp.Diff(want, e.VisiblePage().Records); diff != "" {
		t.Errorf("collection changed after failed persist (-want +got):\n%s", diff)
	}
}

func TestUpsertPersistReceivesAssignedID(t *testing.T) {
	var gotID int
	var gotCreated bool
	persist := func(ctx context.Context, p person, created bool) error {
		gotID, gotCreated = p.ID, created
		return nil
	}

	e, _ := table.New(personKind(), table.Config{PageSize: 10}, discard(), table.WithPersister(persist))
	defer e.Close()
	e.Load(context.Background(), fixed(generate(4)))

	if _, err := e.Upsert(context.Background(), person{Name: "new"}, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if gotID != 5 || !gotCreated {
		t.Errorf("persist got id=%d created=%v, want id=5 created=true", gotID, gotCreated)
	}
}

func TestLoadFailureLeavesCollectionEmpty(t *testing.T) {
	e := newEngine(t, 10)
	cause := errors.New("connection refused")

	err := e.Load(context.Background(), func(ctx context.Context) ([]person, error) {
		return nil, cause
	})
	if !errors.Is(err, table.ErrFetchFailed) || !errors.Is(err, cause) {
		t.Errorf("error = %v, want ErrFetchFailed wrapping cause", err)
	}
	if e.Len() != 0 {
		t.Errorf("Len = %d, want 0", e.Len())
	}
	if e.Status() != table.StatusPopulated {
		t.Errorf("Status = %s, want populated", e.Status())
	}

	if _, err := e.Upsert(context.Background(), person{Name: "still works"}, nil); err != nil {
		t.Errorf("upsert after failed fetch: %v", err)
	}
}

func TestLoadOnlyOnce(t *testing.T) {
	e := newEngine(t, 10, generate(3)...)
	err := e.Load(context.Background(), fixed(generate(9)))
	if !errors.Is(err, table.ErrAlreadyStarted) {
		t.Errorf("error = %v, want ErrAlreadyStarted", err)
	}
	if e.Len() != 3 {
		t.Errorf("Len = %d, want 3", e.Len())
	}
}

func TestLoadTimeoutIsFetchFailure(t *testing.T) {
	e, _ := table.New(personKind(), table.Config{PageSize: 10, FetchTimeout: 20 * time.Millisecond}, discard())
	defer e.Close()

	err := e.Load(context.Background(), func(ctx context.Context) ([]person, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if !errors.Is(err, table.ErrFetchFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want ErrFetchFailed wrapping DeadlineExceeded", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	e, _ := table.New(personKind(), table.Config{PageSize: 10}, discard())
	defer e.Close()

	if e.Status() != table.StatusIdle {
		t.Fatalf("Status = %s, want idle", e.Status())
	}

	release := make(chan struct{})
	e.Start(context.Background(), func(ctx context.Context) ([]person, error) {
		<-release
		return generate(2), nil
	})

	if e.Status() != table.StatusLoading {
		t.Errorf("Status = %s, want loading", e.Status())
	}

	close(release)
	<-e.Loaded()

	if e.Status() != table.StatusPopulated {
		t.Errorf("Status = %s, want populated", e.Status())
	}
	if e.Len() != 2 {
		t.Errorf("Len = %d, want 2", e.Len())
	}
}

func TestFetchDoesNotOverwriteUserMutation(t *testing.T) {
	e, _ := table.New(personKind(), table.Config{PageSize: 10}, discard())
	defer e.Close()

	release := make(chan struct{})
	e.Start(context.Background(), func(ctx context.Context) ([]person, error) {
		<-release
		return generate(5), nil
	})

	if _, err := e.Upsert(context.Background(), person{Name: "typed early"}, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	close(release)
	<-e.Loaded()

	want := []person{{ID: 1, Name: "typed early"}}
	if diff := cmp.Diff(want, e.VisiblePage().Records); diff != "" {
		t.Errorf("fetch overwrote user mutation (-want +got):\n%s", diff)
	}
}

func TestCloseMakesCompletionNoop(t *testing.T) {
	e, _ := table.New(personKind(), table.Config{PageSize: 10}, discard())

	release := make(chan struct{})
	finished := make(chan struct{})
	e.Start(context.Background(), func(ctx context.Context) ([]person, error) {
		defer close(finished)
		<-release
		return generate(5), nil
	})

	e.Close()
	<-e.Loaded()
	close(release)
	<-finished

	if e.Len() != 0 {
		t.Errorf("Len = %d, want 0 after stale completion", e.Len())
	}
	if _, err := e.Upsert(context.Background(), person{Name: "late"}, nil); !errors.Is(err, table.ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
	if err := e.Start(context.Background(), fixed(nil)); !errors.Is(err, table.ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	e, _ := table.New(personKind(), table.Config{PageSize: 10}, discard())
	e.Close()
	e.Close()

	select {
	case <-e.Loaded():
	default:
		t.Error("Loaded should be closed after Close")
	}
}
