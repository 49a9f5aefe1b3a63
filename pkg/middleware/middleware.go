// Package middleware provides an ordered HTTP middleware stack and the
// request logging and status recording wrappers mounted on it.
package middleware

import (
	"net/http"
	"slices"
)

// Func wraps an http.Handler.
type Func = func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware. The first registered
// middleware is outermost.
type System interface {
	Use(mw ...Func)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	fns []Func
}

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw ...Func) {
	s.fns = append(s.fns, mw...)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, fn := range slices.Backward(s.fns) {
		handler = fn(handler)
	}
	return handler
}
