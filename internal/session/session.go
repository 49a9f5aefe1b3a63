// Package session holds the console's login state. A Session is hydrated
// from two client cookies, isAuthenticated and user, on every request;
// the cookies are written only by Login and cleared only by Logout.
package session

import (
	"context"
	"net/http"
)

// Identity is the user a session belongs to.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the per-request view of the client's login state.
type Session struct {
	id            string
	user          Identity
	authenticated bool
	store         *Store
}

// ID identifies the login. It is empty for anonymous sessions.
func (s *Session) ID() string {
	return s.id
}

// IsAuthenticated reports whether the client holds a valid login.
func (s *Session) IsAuthenticated() bool {
	return s.authenticated
}

// User returns the logged-in identity.
func (s *Session) User() (Identity, bool) {
	return s.user, s.authenticated
}

// Login starts a new session for id and persists it to the client.
func (s *Session) Login(w http.ResponseWriter, id Identity) error {
	sid, err := s.store.write(w, id)
	if err != nil {
		return err
	}
	s.id = sid
	s.user = id
	s.authenticated = true
	return nil
}

// Logout clears the session from the client.
func (s *Session) Logout(w http.ResponseWriter) {
	s.store.clear(w)
	s.id = ""
	s.user = Identity{}
	s.authenticated = false
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by Store.Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
