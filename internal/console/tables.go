package console

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/pkg/form"
	"github.com/JaimeStill/console/pkg/middleware"
	"github.com/JaimeStill/console/pkg/routes"
	"github.com/JaimeStill/console/pkg/table"
)

// tableRoutes is the non-generic face of a tableHandler.
type tableRoutes interface {
	name() string
	label() string
	routes() routes.Group
}

// tableSpec configures the console pages of one entity kind. D is the
// kind's form draft.
type tableSpec[R any, D any] struct {
	kind     *table.Kind[R]
	label    string
	singular string
	engine   func(*tables.Workspace) *table.Engine[R]
	draftOf  func(R) D
	fields   func(draft D, creating bool) []fieldView
	// save validates and applies a decoded draft. Field problems are
	// returned as form.Errors.
	save      func(r *http.Request, ws *tables.Workspace, draft D, editingID *int) (R, error)
	status    func(error) int
	multipart bool
	// attachment returns the download link of a row, if any.
	attachment func(R) *attachmentView
	extra      []routes.Route
}

type tableHandler[R any, D any] struct {
	c      *console
	spec   tableSpec[R, D]
	logger *slog.Logger
}

func newTableHandler[R any, D any](c *console, spec tableSpec[R, D]) *tableHandler[R, D] {
	return &tableHandler[R, D]{
		c:      c,
		spec:   spec,
		logger: c.logger.With("handler", spec.kind.Name),
	}
}

func (h *tableHandler[R, D]) name() string  { return h.spec.kind.Name }
func (h *tableHandler[R, D]) label() string { return h.spec.label }

func (h *tableHandler[R, D]) routes() routes.Group {
	return routes.Group{
		Prefix: "/" + h.spec.kind.Name,
		Routes: append([]routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "POST", Pattern: "/search", Handler: h.search},
			{Method: "POST", Pattern: "/sort/{field}", Handler: h.sort},
			{Method: "POST", Pattern: "/page/{direction}", Handler: h.page},
			{Method: "POST", Pattern: "/page-size", Handler: h.pageSize},
			{Method: "GET", Pattern: "/new", Handler: h.create},
			{Method: "GET", Pattern: "/{id}/edit", Handler: h.edit},
			{Method: "POST", Pattern: "/save", Handler: h.save},
		}, h.spec.extra...),
	}
}

func (h *tableHandler[R, D]) path() string {
	return dashboardPath + "/" + h.spec.kind.Name
}

func (h *tableHandler[R, D]) engine(r *http.Request) *table.Engine[R] {
	return h.spec.engine(tables.FromContext(r.Context()))
}

func (h *tableHandler[R, D]) back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.path(), http.StatusSeeOther)
}

func (h *tableHandler[R, D]) list(w http.ResponseWriter, r *http.Request) {
	eng := h.engine(r)
	h.c.waitLoaded(r.Context(), eng.Loaded())

	page := eng.VisiblePage()
	h.c.render(w, r, http.StatusOK, layoutApp, tablePage, h.spec.label, h.tableView(page))
}

func (h *tableHandler[R, D]) search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.engine(r).SetQuery(r.PostForm.Get("query"))
	h.back(w, r)
}

func (h *tableHandler[R, D]) sort(w http.ResponseWriter, r *http.Request) {
	if err := h.engine(r).SetSort(r.PathValue("field")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.back(w, r)
}

func (h *tableHandler[R, D]) page(w http.ResponseWriter, r *http.Request) {
	delta := 0
	switch r.PathValue("direction") {
	case "prev":
		delta = -1
	case "next":
		delta = 1
	default:
		http.Error(w, "unknown page direction", http.StatusBadRequest)
		return
	}
	h.engine(r).SetPage(delta)
	h.back(w, r)
}

func (h *tableHandler[R, D]) pageSize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	size, _ := strconv.Atoi(r.PostForm.Get("size"))
	if err := h.engine(r).SetPageSize(h.c.tables.PageSizes().Normalize(size)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.back(w, r)
}

func (h *tableHandler[R, D]) create(w http.ResponseWriter, r *http.Request) {
	var blank D
	h.renderForm(w, r, http.StatusOK, blank, nil, nil, "")
}

func (h *tableHandler[R, D]) edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	rec, ok := h.engine(r).Find(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.renderForm(w, r, http.StatusOK, h.spec.draftOf(rec), &id, nil, "")
}

func (h *tableHandler[R, D]) save(w http.ResponseWriter, r *http.Request) {
	var draft D
	if err := form.Decode(r, &draft, h.c.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderForm(w, r, http.StatusRequestEntityTooLarge, draft, form.EditingID(r),
				form.Errors{"file": "The file is too large."}, "")
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	editingID := form.EditingID(r)

	_, err := h.spec.save(r, tables.FromContext(r.Context()), draft, editingID)
	if err == nil {
		h.back(w, r)
		return
	}

	var errs form.Errors
	if errors.As(err, &errs) {
		h.renderForm(w, r, http.StatusUnprocessableEntity, draft, editingID, errs, "")
		return
	}

	h.logger.Error("save failed", "request", middleware.RequestID(r.Context()), "error", err)
	h.renderForm(w, r, h.spec.status(err), draft, editingID, nil, "An error occurred. Please try again.")
}

func (h *tableHandler[R, D]) renderForm(w http.ResponseWriter, r *http.Request, status int, draft D, editingID *int, errs form.Errors, msg string) {
	creating := true
	view := formView{
		Nav:       h.navItems(),
		Name:      h.spec.kind.Name,
		Multipart: h.spec.multipart,
		Error:     msg,
	}

	if editingID != nil {
		if _, ok := h.engine(r).Find(*editingID); ok {
			creating = false
			view.EditingID = *editingID
		}
	}

	view.Heading = "Add " + h.spec.singular
	if !creating {
		view.Heading = fmt.Sprintf("Edit %s #%d", h.spec.singular, view.EditingID)
	}

	view.Fields = h.spec.fields(draft, creating)
	for i := range view.Fields {
		view.Fields[i].Error = errs.Get(view.Fields[i].Name)
	}

	h.c.render(w, r, status, layoutApp, formPage, view.Heading, view)
}

func (h *tableHandler[R, D]) tableView(page table.Page[R]) tableView {
	kind := h.spec.kind
	search, _ := kind.Column(kind.SearchField)

	view := tableView{
		Nav:            h.navItems(),
		Name:           kind.Name,
		Label:          h.spec.label,
		Singular:       h.spec.singular,
		SearchLabel:    search.Header,
		Query:          page.Query,
		HasAttachments: h.spec.attachment != nil,
		PageLabel:      pageLabel(page.PageIndex, page.PageCount),
		PageSize:       page.PageSize,
		MaxPageSize:    h.c.tables.PageSizes().MaxPageSize,
		Total:          page.Total,
		CanPrevious:    page.CanPrevious,
		CanNext:        page.CanNext,
		Loading:        page.Status != table.StatusPopulated,
	}

	for _, col := range kind.Columns {
		view.Columns = append(view.Columns, columnView{
			Field:     col.Field,
			Header:    col.Header,
			Indicator: sortIndicator(page.Sort, col.Field),
		})
	}
	view.Span = len(view.Columns) + 1
	if view.HasAttachments {
		view.Span++
	}

	for _, rec := range page.Records {
		row := rowView{ID: kind.ID(rec)}
		for _, col := range kind.Columns {
			row.Cells = append(row.Cells, col.Text(rec))
		}
		if h.spec.attachment != nil {
			row.Attachment = h.spec.attachment(rec)
		}
		view.Rows = append(view.Rows, row)
	}

	return view
}

func (h *tableHandler[R, D]) navItems() []navItem {
	items := slices.Clone(h.c.nav)
	for i := range items {
		items[i].Active = items[i].Name == h.spec.kind.Name
	}
	return items
}
