// Package console serves the server-rendered admin console: the login
// flow, the Users and Documents tables and their add/edit forms. Every
// table action is a form post that updates the session's workspace and
// redirects back to the table.
package console

import (
	"context"
	"crypto/sha256"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/internal/infrastructure"
	"github.com/JaimeStill/console/internal/session"
	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/pkg/metrics"
	"github.com/JaimeStill/console/pkg/middleware"
	"github.com/JaimeStill/console/pkg/routes"
	"github.com/JaimeStill/console/pkg/web"
)

//go:embed templates static
var assets embed.FS

const (
	layoutApp  = "app"
	layoutAuth = "auth"

	loginPath     = "/login"
	dashboardPath = "/dashboard"
)

var (
	loginPage = web.ViewDef{Template: "login.html", Title: "Log In"}
	tablePage = web.ViewDef{Template: "table.html", Title: "Dashboard"}
	formPage  = web.ViewDef{Template: "form.html", Title: "Edit"}
)

// loadWait bounds how long a table view waits for the initial fetch before
// rendering with a loading notice.
const loadWait = 2 * time.Second

type console struct {
	tables    tables.System
	auth      *session.PasswordAuthenticator
	oidc      *session.OIDC
	views     *web.TemplateSet
	logger    *slog.Logger
	maxUpload int64
	loadWait  time.Duration
	nav       []navItem
}

// NewHandler builds the console. It is mounted at the server root and
// redirects every unknown path to the login page.
func NewHandler(cfg *config.Config, infra *infrastructure.Infrastructure) (http.Handler, error) {
	logger := infra.Logger.With("module", "console")

	funcs := template.FuncMap{"lower": strings.ToLower}
	views, err := web.NewTemplateSet(
		assets,
		"templates/layouts/*.html",
		"templates/views",
		"",
		funcs,
		[]web.ViewDef{loginPage, tablePage, formPage},
	)
	if err != nil {
		return nil, err
	}

	c := &console{
		tables:    infra.Tables,
		auth:      infra.Auth,
		oidc:      infra.OIDC,
		views:     views,
		logger:    logger,
		maxUpload: cfg.API.MaxUploadSizeBytes(),
		loadWait:  loadWait,
	}

	tableHandlers := []tableRoutes{newUserTable(c), newDocumentTable(c)}
	for _, t := range tableHandlers {
		c.nav = append(c.nav, navItem{Name: t.name(), Label: t.label()})
	}

	router := web.NewRouter()
	router.SetFallback(web.Redirect(loginPath))
	router.Handle("GET /static/", web.DistServer(assets, "static", "/static/"))
	router.HandleFunc("GET /{$}", web.Redirect(dashboardPath))

	auth := newAuthHandler(c)
	routes.Register(router, auth.routes(), c.dashboard(tableHandlers))

	stack := middleware.New()
	stack.Use(
		middleware.Logger(logger),
		metrics.RecordHTTP,
		limitBody(c.maxUpload+formOverhead),
		plaintext(cfg.Auth.CookieSecure),
		csrfProtect(cfg.Auth.Secret, cfg.Auth.CookieSecure, logger),
		infra.Sessions.Middleware,
	)

	return stack.Apply(router), nil
}

func (c *console) dashboard(handlers []tableRoutes) routes.Group {
	children := make([]routes.Group, len(handlers))
	for i, h := range handlers {
		children[i] = h.routes()
	}

	return routes.Group{
		Prefix: dashboardPath,
		Middleware: []func(http.Handler) http.Handler{
			session.Require(loginPath),
			tables.Middleware(c.tables, c.workspaceFailed),
		},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: web.Redirect(dashboardPath + "/" + handlers[0].name())},
		},
		Children: children,
	}
}

func (c *console) workspaceFailed(w http.ResponseWriter, r *http.Request, err error) {
	c.logger.Error("workspace unavailable", "request", middleware.RequestID(r.Context()), "error", err)
	http.Error(w, "Your workspace could not be opened. Please log in again.", tables.MapHTTPStatus(err))
}

// render writes view inside layout, filling the per-request fields.
func (c *console) render(w http.ResponseWriter, r *http.Request, status int, layout string, view web.ViewDef, title string, data any) {
	vd := web.ViewData{
		Title: title,
		CSRF:  csrf.TemplateField(r),
		Data:  data,
	}
	if s := session.FromContext(r.Context()); s != nil {
		if u, ok := s.User(); ok {
			vd.User = u
		}
	}

	if err := c.views.Render(w, status, layout, view, vd); err != nil {
		c.logger.Error("render failed", "request", middleware.RequestID(r.Context()), "view", view.Template, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// waitLoaded blocks until loaded closes, the request ends or the wait
// budget runs out. It reports whether loading finished.
func (c *console) waitLoaded(ctx context.Context, loaded <-chan struct{}) bool {
	timer := time.NewTimer(c.loadWait)
	defer timer.Stop()

	select {
	case <-loaded:
		return true
	case <-ctx.Done():
	case <-timer.C:
	}
	return false
}

// formOverhead is the body allowance for the non-file fields of a form.
const formOverhead = 1 << 20

// limitBody rejects request bodies larger than n bytes.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				http.Error(w, "The upload is too large.", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// plaintext marks requests received without TLS so the CSRF origin checks
// do not expect https.
func plaintext(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil && !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// csrfProtect derives the CSRF key from the session secret.
func csrfProtect(secret string, secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte("csrf:" + secret))

	return csrf.Protect(
		key[:],
		csrf.Path("/"),
		csrf.Secure(secure),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf rejected", "request", middleware.RequestID(r.Context()), "uri", r.RequestURI, "reason", csrf.FailureReason(r))
			http.Error(w, "The form has expired. Go back, reload the page and try again.", http.StatusForbidden)
		})),
	)
}
