// Package httptransport assembles the service's HTTP surface.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	planhandler "testament/internal/plan/handler"
)

// NewRouter wires all public endpoints. Domain handlers register their own
// routes and middleware; only operational endpoints live here.
func NewRouter(plans *planhandler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	plans.Register(r)

	return r
}
