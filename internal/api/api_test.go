package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/console/internal/api"
	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/internal/documents"
	"github.com/JaimeStill/console/internal/infrastructure"
	"github.com/JaimeStill/console/internal/users"
	"github.com/JaimeStill/console/pkg/module"
	"github.com/JaimeStill/console/pkg/table"
)

const password = "open-sesame"

func placeholderAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":1,"name":"Ann Archer","email":"ann@example.com"},
			{"id":2,"name":"Bob Baker","email":"bob@example.com","role":"admin"},
			{"id":3,"name":"Cara Cole","email":"cara@example.com"}
		]`)
	})
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"userId":1,"title":"Quarterly report"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, opts ...func(*config.Config)) *client {
	t.Helper()

	cfg := &config.Config{}
	cfg.Source.BaseURL = placeholderAPI(t).URL
	cfg.Auth.MockPassword = password
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	infra, err := infrastructure.NewWithLogger(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}
	t.Cleanup(infra.Tables.Close)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	router := module.NewRouter()
	router.Mount(m)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &client{t: t, base: srv.URL + "/api", http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, c.base+path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *client) send(req *http.Request, out any) int {
	c.t.Helper()
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", req.Method, req.URL, err)
		}
	}
	return resp.StatusCode
}

func (c *client) login() {
	c.t.Helper()
	var got api.SessionResponse
	status := c.do("POST", "/session", api.LoginRequest{Email: "ann@example.com", Password: password}, &got)
	if status != http.StatusOK || !got.Authenticated {
		c.t.Fatalf("login status = %d, session = %+v", status, got)
	}
}

func names(p table.Page[users.User]) []string {
	out := make([]string, len(p.Records))
	for i, u := range p.Records {
		out[i] = u.Name
	}
	return out
}

func TestSession(t *testing.T) {
	c := newClient(t)

	var got api.SessionResponse
	if status := c.do("GET", "/session", nil, &got); status != http.StatusOK || got.Authenticated {
		t.Fatalf("anonymous session = %d %+v", status, got)
	}

	tests := []struct {
		name   string
		req    api.LoginRequest
		status int
	}{
		{"unknown user", api.LoginRequest{Email: "nobody@example.com", Password: password}, http.StatusUnauthorized},
		{"wrong password", api.LoginRequest{Email: "ann@example.com", Password: "nope"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]string
			if status := c.do("POST", "/session", tt.req, &body); status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if body["error"] == "" {
				t.Error("missing error message")
			}
		})
	}

	c.login()
	c.do("GET", "/session", nil, &got)
	want := api.SessionResponse{Authenticated: true, User: got.User}
	if diff := cmp.Diff(want, got); diff != "" || got.User == nil || got.User.Email != "ann@example.com" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	if status := c.do("DELETE", "/session", nil, nil); status != http.StatusNoContent {
		t.Errorf("logout status = %d", status)
	}
	if status := c.do("GET", "/users", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("after logout status = %d, want 401", status)
	}
}

func TestTablesRequireSession(t *testing.T) {
	c := newClient(t)

	var body map[string]string
	if status := c.do("GET", "/users", nil, &body); status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if body["error"] == "" {
		t.Error("missing error body")
	}
}

func TestUserTable(t *testing.T) {
	c := newClient(t)
	c.login()

	var page table.Page[users.User]
	if status := c.do("GET", "/users", nil, &page); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if page.Status != table.StatusPopulated || page.Total != 3 {
		t.Fatalf("page = %+v", page)
	}

	c.do("PUT", "/users/query", api.QueryRequest{Query: "a"}, &page)
	if diff := cmp.Diff([]string{"Ann Archer", "Bob Baker", "Cara Cole"}, names(page)); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}

	c.do("PUT", "/users/query", api.QueryRequest{Query: "co"}, &page)
	if diff := cmp.Diff([]string{"Cara Cole"}, names(page)); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	c.do("PUT", "/users/query", api.QueryRequest{}, &page)

	c.do("POST", "/users/sort/name", nil, &page)
	c.do("POST", "/users/sort/name", nil, &page)
	if page.Sort == nil || !page.Sort.Descending {
		t.Fatalf("sort = %+v, want descending", page.Sort)
	}
	if diff := cmp.Diff([]string{"Cara Cole", "Bob Baker", "Ann Archer"}, names(page)); diff != "" {
		t.Errorf("sort mismatch (-want +got):\n%s", diff)
	}
	c.do("POST", "/users/sort/name", nil, &page)
	if page.Sort != nil {
		t.Errorf("third click sort = %+v, want none", page.Sort)
	}

	if status := c.do("POST", "/users/sort/nope", nil, nil); status != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", status)
	}

	c.do("PUT", "/users/page-size", api.PageSizeRequest{Size: 2}, &page)
	if page.PageSize != 2 || page.PageCount != 2 || !page.CanNext || page.CanPrevious {
		t.Errorf("page-size page = %+v", page)
	}

	c.do("POST", "/users/page", api.PageRequest{Delta: 5}, &page)
	if page.PageIndex != 1 || page.CanNext || len(page.Records) != 1 {
		t.Errorf("clamped page = %+v", page)
	}

	c.do("POST", "/users/page", api.PageRequest{Delta: -1}, &page)
	if page.PageIndex != 0 {
		t.Errorf("previous page index = %d", page.PageIndex)
	}

	if status := c.do("PUT", "/users/page-size", "huge", nil); status != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", status)
	}
}

func TestUserUpsert(t *testing.T) {
	c := newClient(t)
	c.login()

	var invalid api.ValidationResponse
	status := c.do("POST", "/users", users.Draft{Email: "bad"}, &invalid)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", status)
	}
	want := map[string]string{
		"name":  "Name is required.",
		"email": "Enter a valid email address.",
	}
	if diff := cmp.Diff(want, map[string]string(invalid.Fields)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	var created users.User
	status = c.do("POST", "/users", users.Draft{Name: "Dan Drake", Email: "dan@example.com"}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if diff := cmp.Diff(users.User{ID: 4, Name: "Dan Drake", Email: "dan@example.com", Role: users.RoleUser}, created); diff != "" {
		t.Errorf("created mismatch (-want +got):\n%s", diff)
	}

	var updated users.User
	status = c.do("PUT", "/users/2", users.Draft{Name: "Robert Baker", Email: "bob@example.com", Role: "admin"}, &updated)
	if status != http.StatusOK || updated.ID != 2 || updated.Name != "Robert Baker" {
		t.Errorf("update = %d %+v", status, updated)
	}

	var found users.User
	if status := c.do("GET", "/users/2", nil, &found); status != http.StatusOK || found != updated {
		t.Errorf("find = %d %+v", status, found)
	}

	if status := c.do("PUT", "/users/99", users.Draft{Name: "X", Email: "x@example.com"}, nil); status != http.StatusNotFound {
		t.Errorf("update missing status = %d, want 404", status)
	}
	if status := c.do("GET", "/users/abc", nil, nil); status != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", status)
	}

	var page table.Page[users.User]
	c.do("GET", "/users", nil, &page)
	if page.Total != 4 {
		t.Errorf("total = %d, want 4", page.Total)
	}
}

func TestDocumentUpload(t *testing.T) {
	c := newClient(t)
	c.login()

	upload := func(method, path, filename string, content []byte, out any) int {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("title", "Design notes")
		mw.WriteField("author", "Ann Archer")
		if filename != "" {
			fw, _ := mw.CreateFormFile("file", filename)
			fw.Write(content)
		}
		mw.Close()

		req, _ := http.NewRequest(method, c.base+path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return c.send(req, out)
	}

	var invalid api.ValidationResponse
	if status := upload("POST", "/documents", "", nil, &invalid); status != http.StatusUnprocessableEntity {
		t.Fatalf("missing file status = %d, want 422", status)
	}
	if invalid.Fields["file"] == "" {
		t.Errorf("fields = %v, want file error", invalid.Fields)
	}

	content := []byte("PK\x03\x04 notes")
	var doc documents.Document
	if status := upload("POST", "/documents", "notes.docx", content, &doc); status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if doc.ID != 2 || doc.Attachment == nil || doc.Attachment.Filename != "notes.docx" {
		t.Fatalf("document = %+v", doc)
	}

	resp, err := c.http.Get(c.base + "/documents/2/attachment")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.Equal(got, content) {
		t.Errorf("download = %d %q", resp.StatusCode, got)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "notes.docx") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	var edited documents.Document
	if status := upload("PUT", "/documents/2", "", nil, &edited); status != http.StatusOK {
		t.Fatalf("edit status = %d", status)
	}
	if edited.Attachment == nil || edited.Attachment.Filename != "notes.docx" {
		t.Error("edit without a file dropped the attachment")
	}

	var body map[string]string
	if status := c.do("GET", "/documents/1/attachment", nil, &body); status != http.StatusNotFound {
		t.Errorf("no attachment status = %d, want 404", status)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	c := newClient(t)

	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Info    struct{ Title string }     `json:"info"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if status := c.do("GET", "/openapi.json", nil, &doc); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if doc.OpenAPI != "3.1.0" || doc.Info.Title != "Console API" {
		t.Errorf("header = %s %q", doc.OpenAPI, doc.Info.Title)
	}
	for _, path := range []string{
		"/session",
		"/users",
		"/users/sort/{field}",
		"/users/{id}",
		"/documents/page-size",
		"/documents/{id}/attachment",
	} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("missing path %s", path)
		}
	}
}

func TestOpenAPIDisabled(t *testing.T) {
	c := newClient(t, func(cfg *config.Config) {
		cfg.API.OpenAPI.Disabled = true
	})

	if status := c.do("GET", "/openapi.json", nil, nil); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}
