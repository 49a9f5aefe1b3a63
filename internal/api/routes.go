package api

import (
	"net/http"

	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/internal/session"
	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/pkg/handlers"
	"github.com/JaimeStill/console/pkg/openapi"
	"github.com/JaimeStill/console/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, cfg *config.Config, runtime *Runtime, domain *Domain) error {
	logger := runtime.Logger
	sessions := newSessionHandler(runtime)

	if !cfg.API.OpenAPI.Disabled {
		spec, err := buildSpec(cfg, sessions, domain.Users, domain.Documents)
		if err != nil {
			return err
		}
		mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))
	}

	fail := func(w http.ResponseWriter, r *http.Request, err error) {
		handlers.RespondError(w, logger, tables.MapHTTPStatus(err), err)
	}

	routes.Register(
		mux,
		sessions.routes(),
		routes.Group{
			Middleware: []func(http.Handler) http.Handler{
				session.RequireJSON(logger),
				tables.Middleware(runtime.Tables, fail),
			},
			Children: []routes.Group{
				domain.Users.routes(),
				domain.Documents.routes(),
			},
		},
	)
	return nil
}
