package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/pkg/openapi"
)

// documented is implemented by handlers that describe their own endpoints.
type documented interface {
	paths() map[string]*openapi.PathItem
	schemas() map[string]*openapi.Schema
}

// buildSpec assembles the OpenAPI document served at /openapi.json.
func buildSpec(cfg *config.Config, handlers ...documented) ([]byte, error) {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	spec := openapi.NewSpec(&cfg.API.OpenAPI, version)
	spec.AddServer(cfg.API.BasePath)
	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"QueryRequest": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"query": {Type: "string"}},
		},
		"PageRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"delta": {Type: "integer", Description: "Pages to move; negative moves back", Example: 1},
			},
		},
		"PageSizeRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"size": {Type: "integer", Minimum: openapi.Int(1), Description: "Rows per page, capped at the configured maximum", Example: 10},
			},
		},
	})

	for _, h := range handlers {
		spec.Components.AddSchemas(h.schemas())
		if err := spec.AddPaths(h.paths()); err != nil {
			return nil, err
		}
	}

	return openapi.MarshalJSON(spec)
}

// pageSchema describes table.Page for records of the named schema.
func pageSchema(record string) *openapi.Schema {
	return &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"records":      {Type: "array", Items: openapi.SchemaRef(record)},
			"query":        {Type: "string"},
			"sort": {
				Type:        "object",
				Description: "Active sort; absent when unsorted",
				Properties: map[string]*openapi.Schema{
					"field":      {Type: "string"},
					"descending": {Type: "boolean"},
				},
			},
			"page_index":   {Type: "integer"},
			"page_size":    {Type: "integer"},
			"page_count":   {Type: "integer"},
			"total":        {Type: "integer", Description: "Records matching the query"},
			"can_previous": {Type: "boolean"},
			"can_next":     {Type: "boolean"},
			"status":       {Type: "string", Enum: []any{"idle", "loading", "populated"}},
		},
	}
}

func (h *sessionHandler) schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"LoginRequest": {
			Type:     "object",
			Required: []string{"email", "password"},
			Properties: map[string]*openapi.Schema{
				"email":    {Type: "string", Format: "email"},
				"password": {Type: "string", Format: "password"},
			},
		},
		"Session": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"authenticated": {Type: "boolean"},
				"user": {
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"email": {Type: "string"},
						"name":  {Type: "string"},
					},
				},
			},
		},
	}
}

func (h *sessionHandler) paths() map[string]*openapi.PathItem {
	ok := openapi.ResponseJSON("Current session", "Session")
	return map[string]*openapi.PathItem{
		"/session": {
			Get: &openapi.Operation{
				Summary:   "Describe the caller's session",
				Tags:      []string{"session"},
				Responses: map[int]*openapi.Response{http.StatusOK: ok},
			},
			Post: &openapi.Operation{
				Summary:     "Log in with the mock password",
				Tags:        []string{"session"},
				RequestBody: openapi.RequestBodyJSON("LoginRequest", true),
				Responses: map[int]*openapi.Response{
					http.StatusOK:           ok,
					http.StatusBadRequest:   openapi.ResponseRef("BadRequest"),
					http.StatusUnauthorized: openapi.ResponseRef("Unauthorized"),
				},
			},
			Delete: &openapi.Operation{
				Summary:   "Log out and discard the workspace",
				Tags:      []string{"session"},
				Responses: map[int]*openapi.Response{http.StatusNoContent: {Description: "Logged out"}},
			},
		},
	}
}

func (h *resource[R, D]) schemas() map[string]*openapi.Schema {
	out := map[string]*openapi.Schema{h.spec.schema: h.spec.record}
	if h.spec.draft != nil {
		out[h.spec.schema+"Draft"] = h.spec.draft
	}
	return out
}

func (h *resource[R, D]) paths() map[string]*openapi.PathItem {
	name := h.spec.kind.Name
	record, draft := h.spec.schema, h.spec.schema+"Draft"
	base := "/" + name
	tags := []string{name}

	page := &openapi.Response{
		Description: "Visible page",
		Content:     map[string]*openapi.MediaType{"application/json": {Schema: pageSchema(record)}},
	}
	guarded := func(op *openapi.Operation) *openapi.Operation {
		op.Tags = tags
		op.Responses[http.StatusUnauthorized] = openapi.ResponseRef("Unauthorized")
		return op
	}
	id := openapi.PathParam("id", fmt.Sprintf("%s id", h.spec.schema))

	body := openapi.RequestBodyJSON(draft, true)
	if h.spec.form != nil {
		body = openapi.RequestBodyMultipart(h.spec.form, true)
	}

	fields := make([]string, len(h.spec.kind.Columns))
	for i, c := range h.spec.kind.Columns {
		fields[i] = c.Field
	}

	paths := map[string]*openapi.PathItem{
		base: {
			Get: guarded(&openapi.Operation{
				Summary:   "Get the visible page",
				Responses: map[int]*openapi.Response{http.StatusOK: page},
			}),
			Post: guarded(&openapi.Operation{
				Summary:     "Create a record",
				RequestBody: body,
				Responses: map[int]*openapi.Response{
					http.StatusCreated:             openapi.ResponseJSON("Created", record),
					http.StatusUnprocessableEntity: openapi.ResponseRef("Unprocessable"),
				},
			}),
		},
		base + "/query": {
			Put: guarded(&openapi.Operation{
				Summary:     fmt.Sprintf("Search by %s", h.spec.kind.SearchField),
				RequestBody: openapi.RequestBodyJSON("QueryRequest", true),
				Responses:   map[int]*openapi.Response{http.StatusOK: page},
			}),
		},
		base + "/sort/{field}": {
			Post: guarded(&openapi.Operation{
				Summary:     "Advance the sort cycle",
				Description: "Ascending, then descending, then unsorted. Another field starts ascending.",
				Parameters:  []*openapi.Parameter{openapi.StringPathParam("field", "Column to sort by", fields...)},
				Responses: map[int]*openapi.Response{
					http.StatusOK:         page,
					http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
				},
			}),
		},
		base + "/page": {
			Post: guarded(&openapi.Operation{
				Summary:     "Move the page cursor",
				RequestBody: openapi.RequestBodyJSON("PageRequest", true),
				Responses:   map[int]*openapi.Response{http.StatusOK: page},
			}),
		},
		base + "/page-size": {
			Put: guarded(&openapi.Operation{
				Summary:     "Change rows per page",
				RequestBody: openapi.RequestBodyJSON("PageSizeRequest", true),
				Responses:   map[int]*openapi.Response{http.StatusOK: page},
			}),
		},
		base + "/{id}": {
			Get: guarded(&openapi.Operation{
				Summary:    "Get a record",
				Parameters: []*openapi.Parameter{id},
				Responses: map[int]*openapi.Response{
					http.StatusOK:       openapi.ResponseJSON("Record", record),
					http.StatusNotFound: openapi.ResponseRef("NotFound"),
				},
			}),
			Put: guarded(&openapi.Operation{
				Summary:     "Replace a record in place",
				Parameters:  []*openapi.Parameter{id},
				RequestBody: body,
				Responses: map[int]*openapi.Response{
					http.StatusOK:                  openapi.ResponseJSON("Updated", record),
					http.StatusNotFound:            openapi.ResponseRef("NotFound"),
					http.StatusUnprocessableEntity: openapi.ResponseRef("Unprocessable"),
				},
			}),
		},
	}

	for path, item := range h.spec.docs {
		for _, op := range []*openapi.Operation{item.Get, item.Post, item.Put, item.Delete} {
			if op != nil {
				guarded(op)
			}
		}
		paths[base+path] = item
	}

	return paths
}
