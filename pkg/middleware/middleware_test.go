package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/console/pkg/middleware"
)

func tag(name string, order *[]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestApplyOrder(t *testing.T) {
	var order []string
	sys := middleware.New()
	sys.Use(tag("first", &order))
	sys.Use(tag("second", &order))

	h := sys.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if diff := cmp.Diff([]string{"first", "second", "handler"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard/users?q=an", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	out := buf.String()
	for _, want := range []string{"level=WARN", "status=418", "method=GET", "uri=\"/dashboard/users?q=an\""} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestLoggerRequestID(t *testing.T) {
	const given = "5f0c7f3e-8a4e-4c1b-9a53-1f6d2a3b4c5d"

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"assigned", "", false},
		{"kept", given, true},
		{"malformed replaced", "not-an-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := middleware.Logger(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.RequestID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(middleware.RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(middleware.RequestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q", got, seen)
			}
			if (got == given) != tt.keep {
				t.Errorf("id = %q, keep = %v", got, tt.keep)
			}
		})
	}
}

func TestStatusRecorderDefault(t *testing.T) {
	rec := middleware.NewStatusRecorder(httptest.NewRecorder())
	rec.Write([]byte("ok"))
	if rec.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Status)
	}
}
