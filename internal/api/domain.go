package api

import (
	"net/http"

	"github.com/JaimeStill/console/internal/documents"
	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/internal/users"
	"github.com/JaimeStill/console/pkg/form"
	"github.com/JaimeStill/console/pkg/openapi"
	"github.com/JaimeStill/console/pkg/routes"
	"github.com/JaimeStill/console/pkg/table"
)

// Domain holds the table resources that comprise the API.
type Domain struct {
	Users     resourceRoutes
	Documents resourceRoutes
}

// NewDomain creates the table resources from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Users:     newResource(runtime, userSpec()),
		Documents: newResource(runtime, documentSpec(runtime)),
	}
}

func userSpec() resourceSpec[users.User, users.Draft] {
	return resourceSpec[users.User, users.Draft]{
		kind: users.Kind,
		engine: func(ws *tables.Workspace) *table.Engine[users.User] {
			return ws.Users
		},
		decode: decodeJSON[users.Draft],
		save: func(r *http.Request, ws *tables.Workspace, d users.Draft, editingID *int) (users.User, error) {
			return ws.SaveUser(r.Context(), d, editingID)
		},
		status: users.MapHTTPStatus,
		schema: "User",
		record: &openapi.Schema{
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":    {Type: "integer", ReadOnly: true},
				"name":  {Type: "string"},
				"email": {Type: "string", Format: "email"},
				"role":  {Type: "string", Enum: []any{"user", "admin"}},
			},
		},
		draft: &openapi.Schema{
			Type:     "object",
			Required: []string{"name", "email"},
			Properties: map[string]*openapi.Schema{
				"name":  {Type: "string", MinLength: openapi.Int(1)},
				"email": {Type: "string", Format: "email"},
				"role":  {Type: "string", Enum: []any{"user", "admin"}, Default: "user"},
			},
		},
	}
}

// documentSpec reads documents as multipart forms so the attachment can
// travel with the fields.
func documentSpec(runtime *Runtime) resourceSpec[documents.Document, documents.Draft] {
	h := &attachmentHandler{logger: runtime.Logger.With("handler", "attachments")}

	return resourceSpec[documents.Document, documents.Draft]{
		kind: documents.Kind,
		engine: func(ws *tables.Workspace) *table.Engine[documents.Document] {
			return ws.Documents
		},
		decode: func(r *http.Request, d *documents.Draft) error {
			return form.Decode(r, d, runtime.MaxUploadSize)
		},
		save: func(r *http.Request, ws *tables.Workspace, d documents.Draft, editingID *int) (documents.Document, error) {
			file, err := documents.ReadUpload(r, "file", runtime.MaxUploadSize)
			if err != nil {
				return documents.Document{}, err
			}
			return ws.SaveDocument(r.Context(), d, editingID, file)
		},
		status: documents.MapHTTPStatus,
		extra: []routes.Route{
			{Method: "GET", Pattern: "/{id}/attachment", Handler: h.download},
		},
		schema: "Document",
		record: &openapi.Schema{
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "integer", ReadOnly: true},
				"title":      {Type: "string"},
				"author":     {Type: "string"},
				"created_at": {Type: "string", Format: "date-time"},
				"attachment": {
					Type:        "object",
					Description: "Absent when no file is attached",
					Properties: map[string]*openapi.Schema{
						"filename":     {Type: "string"},
						"content_type": {Type: "string"},
						"size_bytes":   {Type: "integer"},
						"page_count":   {Type: "integer", Description: "PDF attachments only"},
					},
				},
			},
		},
		form: &openapi.Schema{
			Type:     "object",
			Required: []string{"title", "author"},
			Properties: map[string]*openapi.Schema{
				"title":  {Type: "string", MinLength: openapi.Int(1)},
				"author": {Type: "string", MinLength: openapi.Int(1)},
				"file": {
					Type:        "string",
					Format:      "binary",
					Description: "A .pdf, .doc or .docx file; required when creating",
				},
			},
		},
		docs: map[string]*openapi.PathItem{
			"/{id}/attachment": {
				Get: &openapi.Operation{
					Summary:    "Download the attachment",
					Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document id")},
					Responses: map[int]*openapi.Response{
						http.StatusOK: {
							Description: "Attachment file",
							Content: map[string]*openapi.MediaType{
								"application/octet-stream": {Schema: &openapi.Schema{Type: "string", Format: "binary"}},
							},
						},
						http.StatusNotFound: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}
