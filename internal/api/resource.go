package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/pkg/form"
	"github.com/JaimeStill/console/pkg/handlers"
	"github.com/JaimeStill/console/pkg/openapi"
	"github.com/JaimeStill/console/pkg/pagination"
	"github.com/JaimeStill/console/pkg/routes"
	"github.com/JaimeStill/console/pkg/table"
)

// ErrInvalidBody indicates a request body could not be decoded.
var ErrInvalidBody = errors.New("invalid request body")

// ErrInvalidID indicates a non-numeric record id in the path.
var ErrInvalidID = errors.New("invalid record id")

type resourceRoutes interface {
	documented
	routes() routes.Group
}

// resourceSpec configures the endpoints of one table kind. D is the kind's
// draft.
type resourceSpec[R any, D any] struct {
	kind   *table.Kind[R]
	engine func(*tables.Workspace) *table.Engine[R]
	decode func(r *http.Request, draft *D) error
	save   func(r *http.Request, ws *tables.Workspace, draft D, editingID *int) (R, error)
	status func(error) int
	extra  []routes.Route

	// schema names the record in the API document; record and draft
	// describe it. form replaces the JSON draft with multipart fields.
	schema string
	record *openapi.Schema
	draft  *openapi.Schema
	form   *openapi.Schema
	docs   map[string]*openapi.PathItem
}

type resource[R any, D any] struct {
	spec      resourceSpec[R, D]
	pageSizes pagination.Config
	maxBody   int64
	loadWait  time.Duration
	logger    *slog.Logger
}

func newResource[R any, D any](runtime *Runtime, spec resourceSpec[R, D]) *resource[R, D] {
	return &resource[R, D]{
		spec:      spec,
		pageSizes: runtime.Tables.PageSizes(),
		maxBody:   runtime.MaxUploadSize + 1<<20,
		loadWait:  runtime.LoadWait,
		logger:    runtime.Logger.With("handler", spec.kind.Name),
	}
}

// QueryRequest replaces a table's search query.
type QueryRequest struct {
	Query string `json:"query"`
}

// PageRequest moves the page cursor by Delta pages.
type PageRequest struct {
	Delta int `json:"delta"`
}

// PageSizeRequest changes a table's rows per page.
type PageSizeRequest struct {
	Size int `json:"size"`
}

// ValidationResponse is the 422 body of a rejected submission.
type ValidationResponse struct {
	Error  string      `json:"error"`
	Fields form.Errors `json:"fields"`
}

func (h *resource[R, D]) routes() routes.Group {
	return routes.Group{
		Prefix: "/" + h.spec.kind.Name,
		Routes: append([]routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Page},
			{Method: "PUT", Pattern: "/query", Handler: h.Query},
			{Method: "POST", Pattern: "/sort/{field}", Handler: h.Sort},
			{Method: "POST", Pattern: "/page", Handler: h.Move},
			{Method: "PUT", Pattern: "/page-size", Handler: h.PageSize},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
		}, h.spec.extra...),
	}
}

func (h *resource[R, D]) engine(r *http.Request) *table.Engine[R] {
	return h.spec.engine(tables.FromContext(r.Context()))
}

// Page returns the visible page, waiting briefly for the initial fetch.
func (h *resource[R, D]) Page(w http.ResponseWriter, r *http.Request) {
	eng := h.engine(r)
	waitLoaded(r.Context(), eng.Loaded(), h.loadWait)
	handlers.RespondJSON(w, http.StatusOK, eng.VisiblePage())
}

// Query sets the search query and returns the first page.
func (h *resource[R, D]) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	eng := h.engine(r)
	eng.SetQuery(req.Query)
	handlers.RespondJSON(w, http.StatusOK, eng.VisiblePage())
}

// Sort advances the sort cycle of the path field.
func (h *resource[R, D]) Sort(w http.ResponseWriter, r *http.Request) {
	eng := h.engine(r)
	if err := eng.SetSort(r.PathValue("field")); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, eng.VisiblePage())
}

// Move shifts the page cursor, clamped to the available pages.
func (h *resource[R, D]) Move(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	eng := h.engine(r)
	eng.SetPage(req.Delta)
	handlers.RespondJSON(w, http.StatusOK, eng.VisiblePage())
}

// PageSize changes rows per page. Sizes are capped at the configured maximum.
func (h *resource[R, D]) PageSize(w http.ResponseWriter, r *http.Request) {
	var req PageSizeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	eng := h.engine(r)
	if err := eng.SetPageSize(h.pageSizes.Normalize(req.Size)); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, eng.VisiblePage())
}

// Find returns one record by id.
func (h *resource[R, D]) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rec, found := h.engine(r).Find(id)
	if !found {
		handlers.RespondError(w, h.logger, http.StatusNotFound, fmt.Errorf("%s %d not found", h.spec.kind.Name, id))
		return
	}
	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Create appends a record under a new id.
func (h *resource[R, D]) Create(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, nil, http.StatusCreated)
}

// Update replaces an existing record in place.
func (h *resource[R, D]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if _, found := h.engine(r).Find(id); !found {
		handlers.RespondError(w, h.logger, http.StatusNotFound, fmt.Errorf("%s %d not found", h.spec.kind.Name, id))
		return
	}
	h.upsert(w, r, &id, http.StatusOK)
}

func (h *resource[R, D]) upsert(w http.ResponseWriter, r *http.Request, editingID *int, status int) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var draft D
	if err := h.spec.decode(r, &draft); err != nil {
		h.badBody(w, err)
		return
	}

	rec, err := h.spec.save(r, tables.FromContext(r.Context()), draft, editingID)
	if err != nil {
		var errs form.Errors
		if errors.As(err, &errs) {
			handlers.RespondJSON(w, http.StatusUnprocessableEntity, ValidationResponse{
				Error:  form.ErrValidation.Error(),
				Fields: errs,
			})
			return
		}
		handlers.RespondError(w, h.logger, h.spec.status(err), err)
		return
	}

	handlers.RespondJSON(w, status, rec)
}

func (h *resource[R, D]) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := readJSON(r, dst); err != nil {
		h.badBody(w, err)
		return false
	}
	return true
}

func (h *resource[R, D]) badBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, err)
		return
	}
	handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
}

func (h *resource[R, D]) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return 0, false
	}
	return id, true
}

func readJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}

func decodeJSON[T any](r *http.Request, dst *T) error {
	return readJSON(r, dst)
}

func waitLoaded(ctx context.Context, loaded <-chan struct{}, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-loaded:
	case <-ctx.Done():
	case <-timer.C:
	}
}
