package module

import (
	"fmt"
	"net/http"
	"strings"
)

// Router sends a request to the module mounted on its first path segment.
// Anything else, including "/", goes to the native ServeMux.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// Handle registers handler on the native mux.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.native.Handle(pattern, handler)
}

// HandleFunc registers a handler function on the native mux.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount claims m's prefix. Mounting two modules on one prefix panics.
func (r *Router) Mount(m *Module) {
	if _, taken := r.modules[m.prefix]; taken {
		panic(fmt.Sprintf("module: prefix %s already mounted", m.prefix))
	}
	r.modules[m.prefix] = m
}

// ServeHTTP dispatches by first segment. Paths bound for a module lose a
// trailing slash; native paths are left for the mux to clean.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m, ok := r.modules[firstSegment(req.URL.Path)]
	if !ok {
		r.native.ServeHTTP(w, req)
		return
	}

	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}
	m.Serve(w, req)
}

func firstSegment(path string) string {
	rest, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return "/" + rest
}
