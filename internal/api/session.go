package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/console/internal/session"
	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/pkg/handlers"
	"github.com/JaimeStill/console/pkg/routes"
)

// LoginRequest carries mock-password credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          *session.Identity `json:"user,omitempty"`
}

type sessionHandler struct {
	auth   *session.PasswordAuthenticator
	tables tables.System
	logger *slog.Logger
}

func newSessionHandler(runtime *Runtime) *sessionHandler {
	return &sessionHandler{
		auth:   runtime.Auth,
		tables: runtime.Tables,
		logger: runtime.Logger.With("handler", "session"),
	}
}

func (h *sessionHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/session",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Get},
			{Method: "POST", Pattern: "", Handler: h.Login},
			{Method: "DELETE", Pattern: "", Handler: h.Logout},
		},
	}
}

// Get reports whether the caller is logged in and as whom.
func (h *sessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, describe(session.FromContext(r.Context())))
}

// Login authenticates the credentials and starts a new session. Any
// previous session's workspace is discarded.
func (h *sessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := readJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	id, err := h.auth.Authenticate(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		handlers.RespondError(w, h.logger, session.MapHTTPStatus(err), err)
		return
	}

	s := session.FromContext(r.Context())
	if s.IsAuthenticated() {
		h.tables.Drop(s.ID())
	}
	if err := s.Login(w, id); err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	if _, err := h.tables.Open(s.ID()); err != nil && !errors.Is(err, tables.ErrNoSession) {
		h.logger.Warn("workspace warm-up failed", "error", err)
	}

	handlers.RespondJSON(w, http.StatusOK, describe(s))
}

// Logout ends the session and discards its workspace.
func (h *sessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil {
		if s.IsAuthenticated() {
			h.tables.Drop(s.ID())
		}
		s.Logout(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

func describe(s *session.Session) SessionResponse {
	if s == nil || !s.IsAuthenticated() {
		return SessionResponse{}
	}
	resp := SessionResponse{Authenticated: true}
	if u, ok := s.User(); ok {
		resp.User = &u
	}
	return resp
}
