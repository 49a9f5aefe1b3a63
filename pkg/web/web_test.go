package web_test

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/JaimeStill/console/pkg/web"
)

var testFS = fstest.MapFS{
	"layouts/app.html": {Data: []byte(
		`{{ define "app" }}<title>{{ .Title }}</title><a href="{{ .BasePath }}/x">{{ block "content" . }}{{ end }}</a>{{ end }}`,
	)},
	"views/hello.html": {Data: []byte(
		`{{ define "content" }}{{ shout .Data }}{{ end }}`,
	)},
	"views/broken.html": {Data: []byte(
		`{{ define "content" }}{{ .Data.Missing.Field }}{{ end }}`,
	)},
	"static/site.css": {Data: []byte(`body{}`)},
}

var (
	hello  = web.ViewDef{Template: "hello.html", Title: "Hello"}
	broken = web.ViewDef{Template: "broken.html", Title: "Broken"}
)

func newSet(t *testing.T) *web.TemplateSet {
	t.Helper()
	ts, err := web.NewTemplateSet(
		testFS, "layouts/*.html", "views", "/app",
		template.FuncMap{"shout": strings.ToUpper},
		[]web.ViewDef{hello, broken},
	)
	if err != nil {
		t.Fatalf("NewTemplateSet: %v", err)
	}
	return ts
}

func TestRender(t *testing.T) {
	ts := newSet(t)
	rec := httptest.NewRecorder()

	if err := ts.Render(rec, http.StatusCreated, "app", hello, web.ViewData{Data: "hi"}); err != nil {
		t.Fatalf("render: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Hello</title>", `href="/app/x"`, "HI"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
}

func TestRenderErrorsWriteNothing(t *testing.T) {
	ts := newSet(t)

	rec := httptest.NewRecorder()
	if err := ts.Render(rec, http.StatusOK, "app", broken, web.ViewData{Data: "string"}); err == nil {
		t.Fatal("expected execution error")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("partial output written: %q", rec.Body.String())
	}

	if err := ts.Render(rec, http.StatusOK, "app", web.ViewDef{Template: "nope.html"}, web.ViewData{}); err == nil {
		t.Error("expected missing template error")
	}
}

func TestRouterFallback(t *testing.T) {
	r := web.NewRouter()
	r.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("GET /static/", web.DistServer(testFS, "static", "/static"))
	r.SetFallback(web.Redirect("/login"))

	tests := []struct {
		method   string
		path     string
		status   int
		location string
	}{
		{"GET", "/login", http.StatusOK, ""},
		{"GET", "/static/site.css", http.StatusOK, ""},
		{"GET", "/anything/else", http.StatusSeeOther, "/login"},
		{"HEAD", "/anything/else", http.StatusSeeOther, "/login"},
		{"POST", "/anything/else", http.StatusNotFound, ""},
		{"POST", "/login", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("location = %q, want %q", got, tt.location)
			}
		})
	}
}
