// Package httptransport composes the HTTP surface: middleware chain, public
// auth routes, the operator admin surface and the tenant-scoped API.
package httptransport

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "govinda/internal/auth/handler"
	caseshandler "govinda/internal/cases/handler"
	mdhandler "govinda/internal/masterdata/handler"
	"govinda/internal/platform/metrics"
	"govinda/internal/platform/middleware"
	"govinda/internal/platform/ratelimit"
	tenanthandler "govinda/internal/tenant/handler"
	"govinda/internal/transport/http/shared"
)

// Deps carries everything the router needs. Handlers own their routes; the
// router owns the middleware layering.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	DB      *sql.DB

	TokenValidator middleware.TokenValidator
	Revocation     middleware.RevocationChecker
	TenantResolver middleware.TenantResolver
	AdminToken     string

	// Nil limiters disable throttling for the corresponding surface.
	APILimiter   *ratelimit.Limiter
	LoginLimiter *ratelimit.Limiter

	Auth       *authhandler.Handler
	MasterData *mdhandler.Handler
	Cases      *caseshandler.Handler
	Tenants    *tenanthandler.Handler
}

// NewRouter assembles the full route tree.
//
// Layering, outermost first: recovery, request ID, request clock, logging,
// content type, latency metrics. Login and health are public; /admin sits
// behind the shared operator token; everything else requires a valid token
// and resolves to an active tenant.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.ContentTypeJSON)
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	r.Get("/healthz", handleHealth(deps.DB))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if deps.LoginLimiter != nil {
			r.Use(middleware.RateLimitByIP(deps.LoginLimiter))
		}
		deps.Auth.RegisterPublic(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(deps.AdminToken, deps.Logger))
		deps.Tenants.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.TokenValidator, deps.Revocation, deps.Logger))
		if deps.APILimiter != nil {
			r.Use(middleware.RateLimitByTenant(deps.APILimiter))
		}
		deps.Auth.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ResolveTenant(deps.TenantResolver, deps.Logger))
			deps.Auth.RegisterUsers(r)
			deps.MasterData.Register(r)
			deps.Cases.Register(r)
		})
	})

	return r
}

func handleHealth(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
