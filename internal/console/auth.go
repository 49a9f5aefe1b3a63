package console

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/console/internal/session"
	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/pkg/form"
	"github.com/JaimeStill/console/pkg/routes"
)

type credentials struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type authHandler struct {
	c      *console
	logger *slog.Logger
}

func newAuthHandler(c *console) *authHandler {
	return &authHandler{c: c, logger: c.logger.With("handler", "auth")}
}

func (h *authHandler) routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: loginPath, Handler: h.form},
			{Method: "POST", Pattern: loginPath, Handler: h.login},
			{Method: "GET", Pattern: loginPath + "/oidc", Handler: h.oidcStart},
			{Method: "GET", Pattern: loginPath + "/oidc/callback", Handler: h.oidcCallback},
			{Method: "POST", Pattern: "/logout", Handler: h.logout},
		},
	}
}

func (h *authHandler) form(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil && s.IsAuthenticated() {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, loginView{})
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := form.Decode(r, &creds, 0); err != nil {
		h.render(w, r, http.StatusBadRequest, loginView{Error: session.Message(err)})
		return
	}
	creds.Email = strings.TrimSpace(creds.Email)

	id, err := h.c.auth.Authenticate(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.render(w, r, session.MapHTTPStatus(err), loginView{Email: creds.Email, Error: session.Message(err)})
		return
	}

	h.start(w, r, id)
}

func (h *authHandler) oidcStart(w http.ResponseWriter, r *http.Request) {
	if h.c.oidc == nil {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}

	target, err := h.c.oidc.AuthURL(w, r)
	if err != nil {
		h.logger.Error("oidc login unavailable", "error", err)
		h.render(w, r, http.StatusServiceUnavailable, loginView{Error: session.Message(err)})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *authHandler) oidcCallback(w http.ResponseWriter, r *http.Request) {
	if h.c.oidc == nil {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}

	id, err := h.c.oidc.Exchange(w, r)
	if err != nil {
		h.logger.Warn("oidc callback rejected", "error", err)
		status := session.MapHTTPStatus(err)
		if !errors.Is(err, session.ErrOAuthState) {
			status = http.StatusBadGateway
		}
		h.render(w, r, status, loginView{Error: session.Message(err)})
		return
	}

	h.start(w, r, id)
}

func (h *authHandler) start(w http.ResponseWriter, r *http.Request, id session.Identity) {
	s := session.FromContext(r.Context())
	if s.IsAuthenticated() {
		h.c.tables.Drop(s.ID())
	}

	if err := s.Login(w, id); err != nil {
		h.logger.Error("session start failed", "error", err)
		h.render(w, r, http.StatusInternalServerError, loginView{Email: id.Email, Error: session.Message(err)})
		return
	}

	if _, err := h.c.tables.Open(s.ID()); err != nil && !errors.Is(err, tables.ErrNoSession) {
		h.logger.Warn("workspace warm-up failed", "error", err)
	}

	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil {
		if s.IsAuthenticated() {
			h.c.tables.Drop(s.ID())
		}
		s.Logout(w)
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *authHandler) render(w http.ResponseWriter, r *http.Request, status int, data loginView) {
	if h.c.oidc != nil {
		data.Provider = h.c.oidc.Name()
	}
	h.c.render(w, r, status, layoutAuth, loginPage, "", data)
}
