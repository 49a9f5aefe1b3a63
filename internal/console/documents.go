package console

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JaimeStill/console/internal/documents"
	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/pkg/form"
	"github.com/JaimeStill/console/pkg/formatting"
	"github.com/JaimeStill/console/pkg/handlers"
	"github.com/JaimeStill/console/pkg/middleware"
	"github.com/JaimeStill/console/pkg/routes"
	"github.com/JaimeStill/console/pkg/table"
)

func newDocumentTable(c *console) tableRoutes {
	return newTableHandler(c, tableSpec[documents.Document, documents.Draft]{
		kind:     documents.Kind,
		label:    "Documents",
		singular: "Document",
		engine: func(ws *tables.Workspace) *table.Engine[documents.Document] {
			return ws.Documents
		},
		draftOf: documents.DraftOf,
		fields: func(d documents.Draft, creating bool) []fieldView {
			hint := "Leave empty to keep the current file."
			if creating {
				hint = ""
			}
			return []fieldView{
				{Name: "title", Label: "Title", Type: "text", Value: d.Title, Required: true},
				{Name: "author", Label: "Author", Type: "text", Value: d.Author, Required: true},
				{
					Name:   "file",
					Label:  "Attachment",
					Type:   "file",
					Accept: strings.Join(documents.AcceptedExtensions, ","),
					Hint:   hint,
				},
			}
		},
		save: func(r *http.Request, ws *tables.Workspace, d documents.Draft, editingID *int) (documents.Document, error) {
			file, err := documents.ReadUpload(r, "file", c.maxUpload)
			if err != nil {
				return documents.Document{}, form.Errors{"file": documents.FileMessage(err)}
			}
			return ws.SaveDocument(r.Context(), d, editingID, file)
		},
		status:     documents.MapHTTPStatus,
		multipart:  true,
		attachment: attachmentLink,
		extra: []routes.Route{
			{Method: "GET", Pattern: "/{id}/attachment", Handler: c.download},
		},
	})
}

func attachmentLink(d documents.Document) *attachmentView {
	if d.Attachment == nil {
		return nil
	}
	v := &attachmentView{
		URL:      fmt.Sprintf("%s/%s/%d/attachment", dashboardPath, documents.Kind.Name, d.ID),
		Filename: d.Attachment.Filename,
		Size:     formatting.Bytes(d.Attachment.SizeBytes),
	}
	if d.Attachment.PageCount != nil {
		v.Pages = *d.Attachment.PageCount
	}
	return v
}

func (c *console) download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	att, err := tables.FromContext(r.Context()).Attachment(r.Context(), id)
	if err != nil {
		status := documents.MapHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			c.logger.Error("attachment download failed", "request", middleware.RequestID(r.Context()), "id", id, "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	defer att.Blob.Body.Close()
	handlers.ServeDownload(w, att.Blob.Body, att.Blob.ContentType, att.Blob.ContentLength, att.Meta.Filename)
}
