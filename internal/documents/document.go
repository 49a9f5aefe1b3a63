// Package documents implements the Documents table: the record type, its
// table configuration, the add/edit draft, the mapping from the remote
// source, and attachment storage.
package documents

import (
	"strings"
	"time"

	"github.com/JaimeStill/console/pkg/form"
	"github.com/JaimeStill/console/pkg/formatting"
	"github.com/JaimeStill/console/pkg/table"
)

// UnknownAuthor is shown for documents whose source carries no author.
const UnknownAuthor = "Unknown"

// Document is one row of the Documents table.
type Document struct {
	ID         int         `json:"id"`
	Title      string      `json:"title"`
	Author     string      `json:"author"`
	CreatedAt  time.Time   `json:"created_at"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Attachment describes the file uploaded with a document.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	PageCount   *int   `json:"page_count,omitempty"`
	StorageKey  string `json:"storage_key"`
}

// Kind configures the table engine for documents. Search matches on title.
var Kind = &table.Kind[Document]{
	Name:        "documents",
	SearchField: "title",
	Columns: []table.Column[Document]{
		{Field: "id", Header: "ID", Value: func(d Document) any { return d.ID }},
		{Field: "title", Header: "Title", Value: func(d Document) any { return d.Title }},
		{Field: "author", Header: "Author", Value: func(d Document) any { return d.Author }},
		{
			Field:  "created_at",
			Header: "Created At",
			Value:  func(d Document) any { return d.CreatedAt },
			Format: func(d Document) string { return formatting.Date(d.CreatedAt) },
		},
	},
	ID: func(d Document) int { return d.ID },
	WithID: func(d Document, id int) Document {
		d.ID = id
		return d
	},
}

// Draft holds the editable fields of the add/edit form. The file is carried
// separately in the multipart body.
type Draft struct {
	Title  string `form:"title" json:"title"`
	Author string `form:"author" json:"author"`
}

// DraftOf pre-fills a draft from an existing document.
func DraftOf(d Document) Draft {
	return Draft{Title: d.Title, Author: d.Author}
}

// Validate trims the draft and returns the document it describes, or the
// messages for each field that failed. An attachment is required when
// creating and optional when editing.
func (d Draft) Validate(creating, hasFile bool) (Document, form.Errors) {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)

	errs := form.Errors{}
	errs.Required("title", d.Title, "Title is required.")
	errs.Required("author", d.Author, "Author is required.")
	if creating && !hasFile {
		errs.Add("file", "Attach a PDF or Word document.")
	}
	if len(errs) > 0 {
		return Document{}, errs
	}

	return Document{Title: d.Title, Author: d.Author}, nil
}

// Revise applies an edit to prev: the id, creation time and, unless
// replaced, the attachment carry over.
func Revise(prev, next Document) Document {
	next.CreatedAt = prev.CreatedAt
	if next.Attachment == nil {
		next.Attachment = prev.Attachment
	}
	return next
}
