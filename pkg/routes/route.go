package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Mux is satisfied by http.ServeMux and any router exposing the same registration.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}
