// Package web provides infrastructure for serving server-rendered pages with
// Go templates, embedded static assets, and catch-all routing.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

// ViewDef defines a page by its template file and title.
type ViewDef struct {
	Template string
	Title    string
}

// ViewData is passed to page templates during rendering. BasePath enables
// portable URL generation via {{ .BasePath }}; CSRF carries the hidden form
// field for the request.
type ViewData struct {
	Title    string
	BasePath string
	CSRF     template.HTML
	User     any
	Data     any
}

// TemplateSet holds pre-parsed templates and a base path for URL generation.
type TemplateSet struct {
	views    map[string]*template.Template
	basePath string
}

// NewTemplateSet parses the layout templates matched by layoutGlob, then
// clones them once per view and parses the view from viewSubdir. Templates
// are parsed at startup so a malformed template fails fast.
func NewTemplateSet(fsys fs.FS, layoutGlob, viewSubdir, basePath string, funcs template.FuncMap, views []ViewDef) (*TemplateSet, error) {
	layouts, err := template.New("").Funcs(funcs).ParseFS(fsys, layoutGlob)
	if err != nil {
		return nil, err
	}

	viewSub, err := fs.Sub(fsys, viewSubdir)
	if err != nil {
		return nil, err
	}

	viewTemplates := make(map[string]*template.Template, len(views))
	for _, v := range views {
		t, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layouts for %s: %w", v.Template, err)
		}
		if _, err := t.ParseFS(viewSub, v.Template); err != nil {
			return nil, fmt.Errorf("parse template: %s: %w", v.Template, err)
		}
		viewTemplates[v.Template] = t
	}

	return &TemplateSet{
		views:    viewTemplates,
		basePath: basePath,
	}, nil
}

// BasePath returns the prefix the templates generate URLs under.
func (ts *TemplateSet) BasePath() string {
	return ts.basePath
}

// Render executes the named layout for view with data and writes it with the
// given status. The page is buffered so a template error can still produce a
// clean 500.
func (ts *TemplateSet) Render(w http.ResponseWriter, status int, layout string, view ViewDef, data ViewData) error {
	t, ok := ts.views[view.Template]
	if !ok {
		return fmt.Errorf("template not found: %s", view.Template)
	}

	if data.Title == "" {
		data.Title = view.Title
	}
	data.BasePath = ts.basePath

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layout, data); err != nil {
		return fmt.Errorf("render %s: %w", view.Template, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
