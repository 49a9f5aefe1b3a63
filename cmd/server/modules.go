package main

import (
	"cmp"
	"net/http"

	"github.com/JaimeStill/console/internal/api"
	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/internal/console"
	"github.com/JaimeStill/console/internal/infrastructure"
	"github.com/JaimeStill/console/pkg/handlers"
	"github.com/JaimeStill/console/pkg/metrics"
	"github.com/JaimeStill/console/pkg/module"
)

// Modules holds the mounted API module and the console, which serves every
// path no module claims.
type Modules struct {
	API     *module.Module
	Console http.Handler
}

// NewModules builds the API module and the console handler over infra.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	consoleHandler, err := console.NewHandler(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API:     apiModule,
		Console: consoleHandler,
	}, nil
}

// Mount puts the API under its prefix and the console on the native
// catch-all.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Handle("/", m.Console)
}

// buildRouter serves the probes and the metrics scrape natively; modules
// mount on top.
func buildRouter(cfg *config.Config, infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	version := cmp.Or(cfg.Version, "dev")

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if pending := infra.Lifecycle.Pending(); len(pending) > 0 {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "not ready",
				"pending": pending,
			})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	router.Handle("GET /metrics", metrics.Handler())

	return router
}
