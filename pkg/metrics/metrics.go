// Package metrics registers the console's Prometheus collectors and the
// instrumentation wrappers that feed them.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/console/pkg/middleware"
	"github.com/JaimeStill/console/pkg/table"
)

var (
	httpStatus = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_http_status",
			Help: "Count of responses by http status.",
		},
		[]string{"status"},
	)

	tableFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_table_fetch_total",
			Help: "Initial table fetches by outcome.",
		},
		[]string{"table", "outcome"},
	)

	tableUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_table_upsert_total",
			Help: "Table upserts by operation.",
		},
		[]string{"table", "op"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_sessions_active",
			Help: "Sessions holding a table workspace.",
		},
	)

	logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_login_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTP counts responses by status code.
func RecordHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := middleware.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)
		httpStatus.WithLabelValues(strconv.Itoa(rec.Status)).Inc()
	})
}

// InstrumentFetch counts the outcome of fetch under the table's name.
func InstrumentFetch[R any](name string, fetch table.Fetcher[R]) table.Fetcher[R] {
	return func(ctx context.Context) ([]R, error) {
		records, err := fetch(ctx)
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		tableFetches.WithLabelValues(name, outcome).Inc()
		return records, err
	}
}

// ObserveUpsert counts an upsert as created, updated or failed.
func ObserveUpsert(name string, created bool, err error) {
	op := "updated"
	switch {
	case err != nil:
		op = "failed"
	case created:
		op = "created"
	}
	tableUpserts.WithLabelValues(name, op).Inc()
}

// SessionOpened and SessionClosed track live workspaces.
func SessionOpened() { sessionsActive.Inc() }

func SessionClosed() { sessionsActive.Dec() }

// ObserveLogin counts a login attempt by outcome label.
func ObserveLogin(outcome string) {
	logins.WithLabelValues(outcome).Inc()
}
