package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
)

// Spec is an OpenAPI 3.1 document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec starts a document titled and described by cfg, carrying the shared
// error schemas and responses.
func NewSpec(cfg *Config, version string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:       cfg.Title,
			Description: cfg.Description,
			Version:     version,
		},
		Components: NewComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

// AddServer appends a server URL to the document.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// AddPaths merges path items into the document. Handlers may share a path but
// not a method on it.
func (s *Spec) AddPaths(paths map[string]*PathItem) error {
	for path, item := range paths {
		existing, ok := s.Paths[path]
		if !ok {
			s.Paths[path] = item
			continue
		}
		for method, op := range item.operations() {
			slot := existing.slot(method)
			if *slot != nil {
				return fmt.Errorf("openapi: %s %s documented twice", method, path)
			}
			*slot = op
		}
	}
	return nil
}

func (p *PathItem) operations() map[string]*Operation {
	ops := make(map[string]*Operation, 4)
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		if op := *p.slot(m); op != nil {
			ops[m] = op
		}
	}
	return ops
}

func (p *PathItem) slot(method string) **Operation {
	switch method {
	case http.MethodGet:
		return &p.Get
	case http.MethodPost:
		return &p.Post
	case http.MethodPut:
		return &p.Put
	default:
		return &p.Delete
	}
}

// ServeSpec returns a handler for the serialized document. Clients holding
// the current ETag get 304.
func ServeSpec(doc []byte) http.HandlerFunc {
	sum := sha256.Sum256(doc)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(doc)
	}
}
