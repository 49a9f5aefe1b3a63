package tables

import (
	"context"
	"net/http"

	"github.com/JaimeStill/console/internal/session"
)

type contextKey struct{}

// WithWorkspace returns a copy of ctx carrying ws.
func WithWorkspace(ctx context.Context, ws *Workspace) context.Context {
	return context.WithValue(ctx, contextKey{}, ws)
}

// FromContext returns the workspace attached by Middleware, or nil.
func FromContext(ctx context.Context) *Workspace {
	ws, _ := ctx.Value(contextKey{}).(*Workspace)
	return ws
}

// Middleware opens the workspace of the request's session and attaches it
// to the context. It must run after session.Require; fail answers requests
// whose workspace cannot be opened.
func Middleware(sys System, fail func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if s := session.FromContext(r.Context()); s != nil {
				id = s.ID()
			}

			ws, err := sys.Open(id)
			if err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithWorkspace(r.Context(), ws)))
		})
	}
}
