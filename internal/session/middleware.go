package session

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/console/pkg/handlers"
)

// Require redirects requests without an authenticated session to loginPath.
// It must run inside Store.Middleware.
func Require(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s := FromContext(r.Context()); s == nil || !s.IsAuthenticated() {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireJSON answers 401 with a JSON error body instead of redirecting.
func RequireJSON(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s := FromContext(r.Context()); s == nil || !s.IsAuthenticated() {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
