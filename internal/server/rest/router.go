// Package rest is the HTTP boundary of the auth service: routing, request
// validation, the session gate and the JSON response envelope.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/revocation"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterDeps collects everything NewRouter needs.
type RouterDeps struct {
	Service     UserService
	Verifier    TokenVerifier
	Revocations revocation.Store
	Cookies     *auth.Cookies
	Logger      logging.Logger

	// Metrics defaults to a no-op recorder. MetricsHandler, when set, is
	// mounted at /metrics.
	Metrics        metrics.Recorder
	MetricsHandler http.Handler

	// HealthChecks are run by GET /ping, keyed by dependency name.
	HealthChecks map[string]HealthCheck
}

// NewRouter builds the chi router with the middleware chain
// RequestID → RequestLogger → Recoverer → SecurityHeaders.
func NewRouter(deps *RouterDeps) http.Handler {
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(deps.Logger, rec))
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)

	h := NewAuthHandler(deps.Service, deps.Cookies, rec, deps.Logger)
	authenticate := Authenticator(deps.Verifier, deps.Revocations, rec, deps.Logger)

	r.Get("/ping", pingHandler(deps.HealthChecks, deps.Logger))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
			r.Route("/me/addresses", func(r chi.Router) {
				r.Get("/", h.ListAddresses)
				r.Post("/", h.AddAddress)
				r.Delete("/{addressId}", h.DeleteAddress)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func pingHandler(checks map[string]HealthCheck, logger logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]string, len(checks))
		healthy := true

		for name, check := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := check(ctx)
			cancel()

			if err != nil {
				healthy = false
				status[name] = "unavailable"
				logger.Warn(r.Context(), "health check failed", "dependency", name, "error", err)
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			writeData(w, http.StatusServiceUnavailable, "unhealthy", status)
			return
		}
		writeData(w, http.StatusOK, "pong", status)
	}
}
