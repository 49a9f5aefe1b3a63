// Package api assembles the JSON API module: session login and logout, and
// the Users and Documents tables of the caller's workspace.
package api

import (
	"net/http"

	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/internal/infrastructure"
	"github.com/JaimeStill/console/pkg/metrics"
	"github.com/JaimeStill/console/pkg/middleware"
	"github.com/JaimeStill/console/pkg/module"
)

// NewModule creates the API module with all table resources and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, cfg, runtime, domain); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(metrics.RecordHTTP)
	m.Use(runtime.Sessions.Middleware)

	return m, nil
}
