// Package httptransport assembles the HTTP surface: middleware, per-module
// handlers, health, and metrics.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vantage/internal/platform/middleware"
	"vantage/pkg/platform/httputil"
)

// Registrar is implemented by each module's HTTP handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports the health of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router needs.
type Deps struct {
	Logger         *slog.Logger
	ActorValidator middleware.ActorValidator

	// Handlers for the authenticated /tenants surface.
	Handlers []Registrar

	// Checks run on /healthz, keyed by dependency name.
	Checks map[string]HealthChecker
}

// NewRouter wires all endpoints. Health and metrics stay outside the actor
// gate; everything under /tenants requires a valid bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/healthz", handleHealth(deps.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor(deps.ActorValidator, deps.Logger))
		for _, h := range deps.Handlers {
			h.Register(r)
		}
	})
	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
